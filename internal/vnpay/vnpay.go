// Package vnpay implements the VNPay payment gateway protocol: building
// signed payment URLs and verifying the HMAC-SHA512 signature of
// return/IPN callbacks.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"phonestore-service/pkg/config"
)

// Service talks the VNPay wire protocol
type Service struct {
	cfg config.VNPayConfig
	now func() time.Time
}

// New creates a Service from configuration
func New(cfg config.VNPayConfig) *Service {
	return &Service{cfg: cfg, now: time.Now}
}

// PaymentURLRequest is the input for building a payment URL
type PaymentURLRequest struct {
	TxnRef    string
	Amount    int64 // whole VND; VNPay wants it multiplied by 100
	OrderInfo string
	IPAddr    string
	BankCode  string
}

// CreatePaymentURL builds the signed redirect URL for a payment
func (s *Service) CreatePaymentURL(req PaymentURLRequest) (string, error) {
	if req.TxnRef == "" {
		return "", fmt.Errorf("vnpay: txn ref is required")
	}
	if req.Amount <= 0 {
		return "", fmt.Errorf("vnpay: amount must be positive, got %d", req.Amount)
	}

	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    s.cfg.TmnCode,
		"vnp_Amount":     strconv.FormatInt(req.Amount*100, 10),
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     req.TxnRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  "other",
		"vnp_Locale":     "vn",
		"vnp_ReturnUrl":  s.cfg.ReturnURL,
		"vnp_IpAddr":     req.IPAddr,
		"vnp_CreateDate": s.now().Format("20060102150405"),
	}
	if req.BankCode != "" {
		params["vnp_BankCode"] = req.BankCode
	}

	query := buildQuery(params)
	return fmt.Sprintf("%s?%s&vnp_SecureHash=%s", s.cfg.PaymentURL, query, s.sign(query)), nil
}

// CallbackData is the decoded content of a return/IPN callback
type CallbackData struct {
	TxnRef         string
	TransactionNo  string
	Amount         int64 // whole VND, converted back from the x100 wire form
	ResponseCode   string
	BankCode       string
	RawQuery       string
	SignatureValid bool
	Success        bool // signature valid and gateway reported "00"
}

// ValidateCallback verifies the signature of a callback parameter set and
// extracts the transaction fields. A bad signature is not an error; it is
// a verification failure the caller must act on.
func (s *Service) ValidateCallback(params map[string]string) CallbackData {
	received := params["vnp_SecureHash"]

	signable := make(map[string]string, len(params))
	for k, v := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		signable[k] = v
	}
	query := buildQuery(signable)

	amountRaw, _ := strconv.ParseInt(params["vnp_Amount"], 10, 64)
	data := CallbackData{
		TxnRef:         params["vnp_TxnRef"],
		TransactionNo:  params["vnp_TransactionNo"],
		Amount:         amountRaw / 100,
		ResponseCode:   params["vnp_ResponseCode"],
		BankCode:       params["vnp_BankCode"],
		RawQuery:       query,
		SignatureValid: received != "" && hmac.Equal([]byte(s.sign(query)), []byte(received)),
	}
	data.Success = data.SignatureValid && data.ResponseCode == "00"
	return data
}

// IsSandbox reports whether the gateway is in sandbox mode
func (s *Service) IsSandbox() bool {
	return s.cfg.Sandbox
}

// ReturnURL is the configured redirect target after payment
func (s *Service) ReturnURL() string {
	return s.cfg.ReturnURL
}

// Bank is one entry of the supported bank list
type Bank struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// BankList returns the banks selectable for direct bank payment
func (s *Service) BankList() []Bank {
	return []Bank{
		{Code: "NCB", Name: "Ngan hang NCB"},
		{Code: "VIETCOMBANK", Name: "Ngan hang Vietcombank"},
		{Code: "VIETINBANK", Name: "Ngan hang Vietinbank"},
		{Code: "BIDV", Name: "Ngan hang BIDV"},
		{Code: "AGRIBANK", Name: "Ngan hang Agribank"},
		{Code: "TECHCOMBANK", Name: "Ngan hang Techcombank"},
		{Code: "MBBANK", Name: "Ngan hang MB"},
		{Code: "ACB", Name: "Ngan hang ACB"},
		{Code: "SACOMBANK", Name: "Ngan hang Sacombank"},
		{Code: "VPBANK", Name: "Ngan hang VPBank"},
	}
}

// PaymentMethod is one way to pay at the gateway
type PaymentMethod struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// PaymentMethods returns the gateway payment options
func (s *Service) PaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		{Code: "", Name: "Cong thanh toan VNPay"},
		{Code: "VNPAYQR", Name: "Thanh toan qua QR code"},
		{Code: "VNBANK", Name: "The ATM / tai khoan noi dia"},
		{Code: "INTCARD", Name: "The thanh toan quoc te"},
	}
}

// sign computes the hex HMAC-SHA512 of the query string
func (s *Service) sign(query string) string {
	mac := hmac.New(sha512.New, []byte(s.cfg.HashSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// buildQuery renders params sorted by key, values url-encoded the way
// VNPay signs them (spaces as '+')
func buildQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+url.QueryEscape(params[k]))
	}
	return strings.Join(parts, "&")
}
