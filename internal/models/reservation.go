package models

// ClientType — тип клиента, от него зависит требуемое число документов.
type ClientType string

const (
	ClientIndividual ClientType = "particulier"
	ClientCompany    ClientType = "entreprise"
)

// Identity — данные клиента с первого шага бронирования.
type Identity struct {
	ClientType  ClientType `json:"client_type"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	PostalCode  string     `json:"postal_code"`
	CompanyName string     `json:"company_name,omitempty"`
}

// Document — файл, приложенный на шаге документов.
// URL заполняется после успешной загрузки в хранилище.
type Document struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Content     []byte `json:"-"`
	URL         string `json:"url,omitempty"`
}

// Card — платёжные данные в открытом виде. Никогда не сохраняются.
type Card struct {
	Number string
	Expiry string
	CVC    string
	Holder string
}

// MaskedCard — то, что остаётся от карты в записи подписки.
type MaskedCard struct {
	Last4  string `json:"last4"`
	Expiry string `json:"expiry"`
	Holder string `json:"holder"`
}

// Draft накапливает данные всех шагов бронирования до отправки.
type Draft struct {
	Identity         Identity   `json:"identity"`
	Documents        []Document `json:"documents"`
	Rejected         []Document `json:"rejected"`
	ContractAccepted bool       `json:"contract_accepted"`
	Card             Card       `json:"-"`
}
