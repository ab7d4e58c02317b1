package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_.-]*)\}`)

// Template is an Alimtalk template approved by the provider.
type Template struct {
	Code        string
	ProviderID  string
	Description string
	Body        string
}

// TemplateCatalog resolves template codes to approved templates.
type TemplateCatalog struct {
	byCode map[string]Template
}

// NewTemplateCatalog indexes templates by code and by provider id.
func NewTemplateCatalog(templates ...Template) *TemplateCatalog {
	c := &TemplateCatalog{byCode: make(map[string]Template, len(templates)*2)}
	for _, t := range templates {
		c.byCode[t.Code] = t
		c.byCode[t.ProviderID] = t
	}
	return c
}

// DefaultTemplates returns the catalog of templates registered with the
// provider.
func DefaultTemplates() *TemplateCatalog {
	return NewTemplateCatalog(
		Template{Code: "WELCOME_TEMPLATE", ProviderID: "WELCOME_001", Description: "회원가입 환영 메시지",
			Body: "{name}님, 가입을 환영합니다!"},
		Template{Code: "ORDER_CONFIRMATION_TEMPLATE", ProviderID: "ORDER_001", Description: "주문 확인 메시지",
			Body: "주문이 완료되었습니다.\n주문번호: {orderNumber}\n상품명: {productName}\n결제금액: {amount}원"},
		Template{Code: "PAYMENT_CONFIRMATION_TEMPLATE", ProviderID: "PAYMENT_001", Description: "결제 완료 메시지",
			Body: "{name}님, 결제가 완료되었습니다.\n결제금액: {amount}원"},
		Template{Code: "SHIPPING_NOTIFICATION_TEMPLATE", ProviderID: "SHIPPING_001", Description: "배송 시작 알림",
			Body: "주문하신 상품이 발송되었습니다.\n주문번호: {orderNumber}\n운송장번호: {trackingNumber}"},
		Template{Code: "DELIVERY_COMPLETE_TEMPLATE", ProviderID: "DELIVERY_001", Description: "배송 완료 알림",
			Body: "주문하신 상품의 배송이 완료되었습니다.\n주문번호: {orderNumber}"},
		Template{Code: "PASSWORD_RESET_TEMPLATE", ProviderID: "PASSWORD_001", Description: "비밀번호 재설정",
			Body: "비밀번호 재설정 인증번호는 {code} 입니다."},
		Template{Code: "NOTIFICATION_TEMPLATE", ProviderID: "NOTIFICATION_001", Description: "일반 알림",
			Body: "{name}님, 새로운 알림이 있습니다.\n{content}"},
	)
}

// Lookup finds a template by code or provider id.
func (c *TemplateCatalog) Lookup(code string) (Template, error) {
	t, ok := c.byCode[strings.TrimSpace(code)]
	if !ok {
		return Template{}, &models.ValidationError{Field: "template_code", Reason: "unknown template " + code}
	}
	return t, nil
}

// Placeholders lists the distinct {key} placeholders in text, sorted.
func Placeholders(text string) []string {
	seen := map[string]struct{}{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		seen[m[1]] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CheckVariables fails when text has a placeholder with no variable.
func CheckVariables(field, text string, vars map[string]string) error {
	var missing []string
	for _, key := range Placeholders(text) {
		if _, ok := vars[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &models.ValidationError{Field: field, Reason: "unresolved placeholders: " + strings.Join(missing, ", ")}
	}
	return nil
}

// Render substitutes every {key} placeholder in text.
func Render(field, text string, vars map[string]string) (string, error) {
	if err := CheckVariables(field, text, vars); err != nil {
		return "", err
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(m string) string {
		return vars[m[1:len(m)-1]]
	}), nil
}

// providerVariables converts caller variables to the #{key} form used by
// Alimtalk templates.
func providerVariables(vars map[string]string) map[string]string {
	if len(vars) == 0 {
		return nil
	}
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		out["#{"+k+"}"] = v
	}
	return out
}
