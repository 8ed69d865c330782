package reservation

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/magabrotheeeer/car-subscription/internal/models"
	"github.com/magabrotheeeer/car-subscription/internal/validation"
)

// Rules — ограничения шага документов.
type Rules struct {
	MinDocuments        int   // Для частных клиентов
	MinCompanyDocuments int   // Для клиентов-компаний
	MaxTotalSize        int64 // Суммарный размер принятых файлов, байт
}

// DefaultRules: 3 документа для частного клиента, 5 для компании, не больше 500 МБ.
func DefaultRules() Rules {
	return Rules{
		MinDocuments:        3,
		MinCompanyDocuments: 5,
		MaxTotalSize:        500 << 20,
	}
}

func (r Rules) required(t models.ClientType) int {
	if t == models.ClientCompany {
		return r.MinCompanyDocuments
	}
	return r.MinDocuments
}

var acceptedTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

var acceptedExt = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// MediaType возвращает нормализованный тип документа и признак допустимости.
// При пустом Content-Type тип определяется по расширению файла.
func MediaType(doc models.Document) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(doc.ContentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		ct = acceptedExt[strings.ToLower(filepath.Ext(doc.Name))]
	}
	_, ok := acceptedTypes[ct]
	return ct, ok
}

// SplitDocuments делит документы на принятые и отклонённые по типу.
func SplitDocuments(docs []models.Document) (accepted, rejected []models.Document) {
	for _, d := range docs {
		if ct, ok := MediaType(d); ok {
			d.ContentType = ct
			accepted = append(accepted, d)
		} else {
			rejected = append(rejected, d)
		}
	}
	return accepted, rejected
}

// ValidateIdentity проверяет поля первого шага.
func ValidateIdentity(id models.Identity) error {
	f := fieldErrors{}
	f.check(id.ClientType == models.ClientIndividual || id.ClientType == models.ClientCompany,
		"client_type", "client type must be particulier or entreprise")
	f.check(strings.TrimSpace(id.FirstName) != "", "first_name", "first name is required")
	f.check(strings.TrimSpace(id.LastName) != "", "last_name", "last name is required")
	f.check(validation.Email(id.Email), "email", "email is not valid")
	f.check(validation.Phone(id.Phone), "phone", "phone must contain 10 to 15 digits")
	f.check(strings.TrimSpace(id.Address) != "", "address", "address is required")
	f.check(strings.TrimSpace(id.City) != "", "city", "city is required")
	f.check(validation.PostalCode(id.PostalCode), "postal_code", "postal code must contain 5 digits")
	if id.ClientType == models.ClientCompany {
		f.check(strings.TrimSpace(id.CompanyName) != "", "company_name", "company name is required")
	}
	return f.err()
}

// ValidateDocuments проверяет количество и суммарный размер принятых документов.
func ValidateDocuments(accepted []models.Document, clientType models.ClientType, rules Rules) error {
	f := fieldErrors{}

	need := rules.required(clientType)
	f.check(len(accepted) >= need, "documents",
		fmt.Sprintf("at least %d documents in PDF, JPEG or PNG are required, got %d", need, len(accepted)))

	var total int64
	for _, d := range accepted {
		total += d.Size
	}
	f.check(total <= rules.MaxTotalSize, "documents_size",
		fmt.Sprintf("total size %d bytes exceeds the %d bytes limit", total, rules.MaxTotalSize))

	return f.err()
}

// ValidateCard проверяет платёжные поля на момент now.
func ValidateCard(card models.Card, now time.Time) error {
	f := fieldErrors{}
	f.check(validation.CardNumber(card.Number), "card_number", "card number is not valid")
	f.check(validation.Expiry(card.Expiry, now), "card_expiry", "card is expired or expiry is malformed")
	f.check(validation.CVC(card.CVC), "card_cvc", "cvc must contain 3 or 4 digits")
	return f.err()
}

// MaskCard оставляет только последние 4 цифры, срок и владельца.
func MaskCard(card models.Card) models.MaskedCard {
	d := validation.Digits(card.Number)
	last4 := d
	if len(d) > 4 {
		last4 = d[len(d)-4:]
	}
	return models.MaskedCard{
		Last4:  last4,
		Expiry: card.Expiry,
		Holder: strings.TrimSpace(card.Holder),
	}
}
