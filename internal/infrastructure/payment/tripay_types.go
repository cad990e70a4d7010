package payment

// wire shapes of the Tripay API; money fields are whole rupiah

type tripayEnvelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type tripayOrderItem struct {
	SKU      string `json:"sku,omitempty"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type tripayCreateRequest struct {
	Method        string            `json:"method"`
	MerchantRef   string            `json:"merchant_ref"`
	Amount        int64             `json:"amount"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	CustomerPhone string            `json:"customer_phone,omitempty"`
	OrderItems    []tripayOrderItem `json:"order_items"`
	ReturnURL     string            `json:"return_url,omitempty"`
	CallbackURL   string            `json:"callback_url,omitempty"`
	ExpiredTime   int64             `json:"expired_time,omitempty"`
	Signature     string            `json:"signature"`
}

type tripayInstruction struct {
	Title string   `json:"title"`
	Steps []string `json:"steps"`
}

type tripayTransaction struct {
	Reference      string              `json:"reference"`
	MerchantRef    string              `json:"merchant_ref"`
	PaymentMethod  string              `json:"payment_method"`
	Amount         int64               `json:"amount"`
	FeeCustomer    int64               `json:"fee_customer"`
	AmountReceived int64               `json:"amount_received"`
	PayCode        string              `json:"pay_code"`
	PayURL         string              `json:"pay_url"`
	CheckoutURL    string              `json:"checkout_url"`
	Status         string              `json:"status"`
	ExpiredTime    int64               `json:"expired_time"`
	PaidAt         *int64              `json:"paid_at"`
	Instructions   []tripayInstruction `json:"instructions"`
}

type tripayCallback struct {
	Reference      string `json:"reference"`
	MerchantRef    string `json:"merchant_ref"`
	PaymentMethod  string `json:"payment_method_code"`
	TotalAmount    int64  `json:"total_amount"`
	AmountReceived int64  `json:"amount_received"`
	IsClosed       bool   `json:"is_closed_payment"`
	Status         string `json:"status"`
	PaidAt         *int64 `json:"paid_at"`
}
