package models

// --- Ownership filings (Form 4) ---

// Filing is one decoded insider-transaction disclosure.
// It is built once by the decoder and never mutated afterwards.
type Filing struct {
	ID             string                     `json:"id"`        // accession number, e.g. "0001234567-24-000001"
	FileName       string                     `json:"file_name"` // payload file name declared in the envelope
	DocumentType   string                     `json:"document_type,omitempty"`
	PeriodOfReport string                     `json:"period_of_report,omitempty"`
	Reporters      []Reporter                 `json:"reporters"` // never empty
	Issuer         Issuer                     `json:"issuer"`
	NonDerivative  []NonDerivativeTransaction `json:"non_derivative"`
	Derivative     []DerivativeTransaction    `json:"derivative"`
}

// Reporter is the insider making the disclosure. Joint filings carry several.
type Reporter struct {
	Name      string      `json:"name"`
	CIK       string      `json:"cik"` // opaque, keep leading zeros
	Relations RelationSet `json:"relations"`
}

// Relation is a reporter's relationship to the issuer.
type Relation string

const (
	RelationDirector        Relation = "director"
	RelationOfficer         Relation = "officer"
	RelationTenPercentOwner Relation = "ten_percent_owner"
	RelationOther           Relation = "other"
)

// RelationSet holds the relationship flags that were set plus the free-text
// titles. OfficerTitle may be present without RelationOfficer.
type RelationSet struct {
	Roles        []Relation `json:"roles"`
	OfficerTitle *string    `json:"officer_title,omitempty"`
	OtherText    *string    `json:"other_text,omitempty"`
}

// Has reports whether r is in the set.
func (s RelationSet) Has(r Relation) bool {
	for _, role := range s.Roles {
		if role == r {
			return true
		}
	}
	return false
}

// Issuer is the company whose securities are transacted.
type Issuer struct {
	Name          string `json:"name"`
	CIK           string `json:"cik"`
	TradingSymbol string `json:"trading_symbol"`
}

// NonDerivativeTransaction is a reported trade in the issuer's common security.
type NonDerivativeTransaction struct {
	SecurityTitle string             `json:"security_title"`
	Date          *string            `json:"date,omitempty"` // as written in the filing
	Codes         []TransactionCode  `json:"codes,omitempty"`
	Effect        *TransactionEffect `json:"effect,omitempty"`
	SharesOwned   float64            `json:"shares_owned"` // following the transaction
	Ownership     Ownership          `json:"ownership"`
}

// TransactionEffect is the amount, direction and price of a trade.
// Either every field is known or the whole effect is absent.
type TransactionEffect struct {
	Shares        int64            `json:"shares"`
	Direction     AcquiredDisposed `json:"direction"`
	PricePerShare float64          `json:"price_per_share"`
}

// Acquired reports whether the shares were acquired rather than disposed of.
func (e TransactionEffect) Acquired() bool { return e.Direction == Acquired }

// DerivativeTransaction is a reported trade in a derivative over the
// issuer's security (options, warrants, convertible notes, ...).
type DerivativeTransaction struct {
	SecurityTitle  string              `json:"security_title"`
	Date           *string             `json:"date,omitempty"`
	Codes          []TransactionCode   `json:"codes,omitempty"`
	Count          *DerivativeCount    `json:"count,omitempty"`
	Underlying     *UnderlyingSecurity `json:"underlying,omitempty"`
	PricePerShare  *float64            `json:"price_per_share,omitempty"`
	ExercisePrice  *float64            `json:"exercise_price,omitempty"`
	ExpirationDate *string             `json:"expiration_date,omitempty"`
	SharesOwned    float64             `json:"shares_owned"`
	Ownership      Ownership           `json:"ownership"`
}

// DerivativeCount is the number of derivative securities acquired or disposed.
type DerivativeCount struct {
	Direction AcquiredDisposed `json:"direction"`
	Shares    int64            `json:"shares"`
}

// Signed returns the count as a positive (acquired) or negative (disposed) number.
func (c DerivativeCount) Signed() int64 {
	if c.Direction == Acquired {
		return c.Shares
	}
	return -c.Shares
}

// UnderlyingSecurity is the security a derivative converts into.
type UnderlyingSecurity struct {
	Title  string  `json:"title"`
	Shares float64 `json:"shares"`
}

// AcquiredDisposed is the A/D flag on a transaction.
type AcquiredDisposed string

const (
	Acquired AcquiredDisposed = "A"
	Disposed AcquiredDisposed = "D"
)

// OwnershipKind distinguishes direct from indirect holdings.
type OwnershipKind string

const (
	OwnershipDirect   OwnershipKind = "D"
	OwnershipIndirect OwnershipKind = "I"
)

// Ownership records how the reporter holds the security. Nature is set
// only for indirect ownership and is never empty in that case.
type Ownership struct {
	Kind   OwnershipKind `json:"kind"`
	Nature string        `json:"nature,omitempty"` // e.g. "By Trust"
}

// Direct returns a direct ownership value.
func Direct() Ownership { return Ownership{Kind: OwnershipDirect} }

// Indirect returns an indirect ownership value with the given nature.
func Indirect(nature string) Ownership {
	return Ownership{Kind: OwnershipIndirect, Nature: nature}
}

// IsDirect reports whether the holding is direct.
func (o Ownership) IsDirect() bool { return o.Kind == OwnershipDirect }

// TransactionCode is a single-letter Section 16 transaction code.
type TransactionCode string

const (
	// General
	CodePurchase  TransactionCode = "P" // open market or private purchase
	CodeSale      TransactionCode = "S" // open market or private sale
	CodeVoluntary TransactionCode = "V" // voluntarily reported earlier than required

	// Rule 16b-3
	CodeGrant         TransactionCode = "A"
	CodeDispositionTo TransactionCode = "D"
	CodeTaxWithhold   TransactionCode = "F"
	CodeDiscretionary TransactionCode = "I"
	CodeExempt        TransactionCode = "M"

	// Derivative securities
	CodeConversion  TransactionCode = "C"
	CodeExpireShort TransactionCode = "E"
	CodeExpireLong  TransactionCode = "H"
	CodeExerciseOTM TransactionCode = "O"
	CodeExerciseITM TransactionCode = "X"

	// Exempt and small acquisitions
	CodeGift         TransactionCode = "G"
	CodeSmallAcquire TransactionCode = "L"
	CodeWill         TransactionCode = "W"
	CodeVotingTrust  TransactionCode = "Z"

	// Other
	CodeOther       TransactionCode = "J"
	CodeEquitySwap  TransactionCode = "K"
	CodeTenderOffer TransactionCode = "U"
)

var transactionCodeDescriptions = map[TransactionCode]string{
	CodePurchase:      "Open market or private purchase",
	CodeSale:          "Open market or private sale",
	CodeVoluntary:     "Transaction voluntarily reported earlier than required",
	CodeGrant:         "Grant, award or other acquisition pursuant to Rule 16b-3(d)",
	CodeDispositionTo: "Disposition to the issuer pursuant to Rule 16b-3(e)",
	CodeTaxWithhold:   "Payment of exercise price or tax liability by delivering or withholding securities",
	CodeDiscretionary: "Discretionary transaction pursuant to Rule 16b-3(f)",
	CodeExempt:        "Exercise or conversion of derivative security exempted pursuant to Rule 16b-3",
	CodeConversion:    "Conversion of derivative security",
	CodeExpireShort:   "Expiration of short derivative position",
	CodeExpireLong:    "Expiration (or cancellation) of long derivative position with value received",
	CodeExerciseOTM:   "Exercise of out-of-the-money derivative security",
	CodeExerciseITM:   "Exercise of in-the-money or at-the-money derivative security",
	CodeGift:          "Bona fide gift",
	CodeSmallAcquire:  "Small acquisition under Rule 16a-6",
	CodeWill:          "Acquisition or disposition by will or the laws of descent and distribution",
	CodeVotingTrust:   "Deposit into or withdrawal from voting trust",
	CodeOther:         "Other acquisition or disposition",
	CodeEquitySwap:    "Transaction in equity swap or similar instrument",
	CodeTenderOffer:   "Disposition pursuant to a tender of shares in a change of control transaction",
}

// Description returns the regulatory meaning of the code, or "" if unknown.
func (c TransactionCode) Description() string {
	return transactionCodeDescriptions[c]
}

// Valid reports whether c is one of the known codes.
func (c TransactionCode) Valid() bool {
	_, ok := transactionCodeDescriptions[c]
	return ok
}
