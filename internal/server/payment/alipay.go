package payment

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/remarkly/backend/internal/server/config"
	"github.com/remarkly/backend/internal/server/orders"
	"github.com/remarkly/backend/internal/shared"
)

// Terminal success codes in Alipay trade notifications.
const (
	TradeSuccess  = "TRADE_SUCCESS"
	TradeFinished = "TRADE_FINISHED"
)

// AlipayProvider talks to the Alipay open gateway: precreate for QR orders,
// RSA2 (SHA256withRSA over the sorted parameter string) for both request
// signing and notification verification.
type AlipayProvider struct {
	appID      string
	gateway    string
	notifyURL  string
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	hc         *http.Client
}

// compile-time interface check
var _ Provider = (*AlipayProvider)(nil)

func NewAlipayProvider(cfg *config.Config) (*AlipayProvider, error) {

	privateKey, err := parsePrivateKey(cfg.AlipayPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("parsing alipay private key: %w", err)
	}

	publicKey, err := parsePublicKey(cfg.AlipayPublicKey)
	if err != nil {
		return nil, fmt.Errorf("parsing alipay public key: %w", err)
	}

	return &AlipayProvider{
		appID:      cfg.AlipayAppID,
		gateway:    cfg.AlipayGateway,
		notifyURL:  cfg.AlipayNotifyURL,
		privateKey: privateKey,
		publicKey:  publicKey,
		hc:         &http.Client{Timeout: cfg.ProviderTimeout},
	}, nil
}

func (p *AlipayProvider) CreateOrder(ctx context.Context, order *orders.PendingOrder, passback string) (string, error) {

	bizContent, err := json.Marshal(map[string]string{
		"out_trade_no":    order.ID,
		"total_amount":    order.Amount,
		"subject":         fmt.Sprintf("Remarkly - %d credit top-up", order.CreditsGranted),
		"passback_params": passback,
	})
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("app_id", p.appID)
	params.Set("method", "alipay.trade.precreate")
	params.Set("charset", "utf-8")
	params.Set("sign_type", "RSA2")
	params.Set("timestamp", time.Now().Format("2006-01-02 15:04:05"))
	params.Set("version", "1.0")
	params.Set("notify_url", p.notifyURL)
	params.Set("biz_content", string(bizContent))

	signature, err := p.sign(params)
	if err != nil {
		return "", fmt.Errorf("signing request: %w", err)
	}
	params.Set("sign", signature)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.gateway, strings.NewReader(params.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := p.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrorUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", shared.ErrorUpstreamUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", shared.ErrorUpstreamUnavailable, resp.StatusCode)
	}

	var envelope struct {
		Response struct {
			Code   string `json:"code"`
			Msg    string `json:"msg"`
			QRCode string `json:"qr_code"`
		} `json:"alipay_trade_precreate_response"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", shared.ErrorMalformedResponse
	}
	if envelope.Response.Code != "10000" {
		return "", fmt.Errorf("precreate rejected: code %s (%s)", envelope.Response.Code, envelope.Response.Msg)
	}

	return envelope.Response.QRCode, nil
}

// VerifyNotification checks the RSA2 signature over the notification's form
// parameters, excluding sign and sign_type, joined in sorted key order.
func (p *AlipayProvider) VerifyNotification(values url.Values) error {

	signature, err := base64.StdEncoding.DecodeString(values.Get("sign"))
	if err != nil {
		return shared.ErrorSignatureInvalid
	}

	digest := sha256.Sum256([]byte(signedContent(values)))
	if err := rsa.VerifyPKCS1v15(p.publicKey, crypto.SHA256, digest[:], signature); err != nil {
		return shared.ErrorSignatureInvalid
	}

	return nil
}

func (p *AlipayProvider) sign(params url.Values) (string, error) {
	digest := sha256.Sum256([]byte(signedContent(params)))
	signature, err := rsa.SignPKCS1v15(rand.Reader, p.privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}

// signedContent builds the canonical "k=v&k=v" string: every parameter
// except sign and sign_type, keys sorted, values unescaped.
func signedContent(values url.Values) string {

	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "sign" || k == "sign_type" {
			continue
		}
		if values.Get(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}

	return strings.Join(pairs, "&")
}

func parsePrivateKey(pemData string) (*rsa.PrivateKey, error) {

	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("not an RSA private key")
	}
	return key, nil
}

func parsePublicKey(pemData string) (*rsa.PublicKey, error) {

	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}

	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return key, nil
}
