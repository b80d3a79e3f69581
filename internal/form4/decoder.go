// Package form4 decodes SEC Form 4 (statement of changes in beneficial
// ownership) submissions into models.Filing.
//
// A submission is the plaintext wrapper EDGAR serves for a filing: an SGML
// header with the accession number, one or more <DOCUMENT> sections, and an
// <XML> block carrying the ownership document. Decoding is two-phase:
// the wrapper is scanned for the pieces we need, then the XML payload is
// walked by tag name. Unknown elements are ignored and nothing relies on
// element positions, since filer software orders groups inconsistently.
package form4

import (
	"fmt"

	"github.com/seenimoa/insiderwatch/pkg/models"
)

// Decode extracts the ownership document from a raw submission text and
// parses it. It has no side effects and is safe for concurrent use.
func Decode(raw string) (*models.Filing, error) {
	env, err := extractEnvelope(raw)
	if err != nil {
		return nil, err
	}

	root, err := parseTree(env.payload)
	if err != nil {
		return nil, err
	}

	reporters, err := decodeReporters(root)
	if err != nil {
		return nil, err
	}

	issuer, err := decodeIssuer(root)
	if err != nil {
		return nil, err
	}

	nonDerivative, err := decodeNonDerivative(root)
	if err != nil {
		return nil, err
	}

	derivative, err := decodeDerivative(root)
	if err != nil {
		return nil, err
	}

	f := &models.Filing{
		ID:            env.accession,
		FileName:      env.fileName,
		Reporters:     reporters,
		Issuer:        issuer,
		NonDerivative: nonDerivative,
		Derivative:    derivative,
	}
	f.DocumentType, _ = root.child("documentType").ownText()
	f.PeriodOfReport, _ = root.child("periodOfReport").ownText()
	return f, nil
}

// --- reporters & issuer ---

func decodeReporters(root *node) ([]models.Reporter, error) {
	owners := root.descendants("reportingOwner")
	if len(owners) == 0 {
		return nil, missing("reportingOwner")
	}

	reporters := make([]models.Reporter, 0, len(owners))
	for i, owner := range owners {
		at := fmt.Sprintf("reportingOwner[%d]", i)

		id := owner.child("reportingOwnerId")
		if id == nil {
			return nil, missing(at + "/reportingOwnerId")
		}
		cik, ok := id.child("rptOwnerCik").ownText()
		if !ok {
			return nil, missing(at + "/reportingOwnerId/rptOwnerCik")
		}
		name, ok := id.child("rptOwnerName").ownText()
		if !ok {
			return nil, missing(at + "/reportingOwnerId/rptOwnerName")
		}

		reporters = append(reporters, models.Reporter{
			Name:      name,
			CIK:       cik,
			Relations: decodeRelations(owner.child("reportingOwnerRelationship")),
		})
	}
	return reporters, nil
}

var relationFlags = []struct {
	tag      string
	relation models.Relation
}{
	{"isDirector", models.RelationDirector},
	{"isOfficer", models.RelationOfficer},
	{"isTenPercentOwner", models.RelationTenPercentOwner},
	{"isOther", models.RelationOther},
}

// decodeRelations tests each flag independently. Titles are read whether
// or not the matching flag is set; filers often fill one without the other.
func decodeRelations(rel *node) models.RelationSet {
	set := models.RelationSet{Roles: []models.Relation{}}
	if rel == nil {
		return set
	}
	for _, flag := range relationFlags {
		if v, ok := rel.child(flag.tag).ownText(); ok && isTruthy(v) {
			set.Roles = append(set.Roles, flag.relation)
		}
	}
	if title, ok := rel.child("officerTitle").ownText(); ok {
		set.OfficerTitle = &title
	}
	if other, ok := rel.child("otherText").ownText(); ok {
		set.OtherText = &other
	}
	return set
}

func isTruthy(s string) bool {
	return s == "1" || s == "true"
}

func decodeIssuer(root *node) (models.Issuer, error) {
	issuer := root.descendant("issuer")
	if issuer == nil {
		return models.Issuer{}, missing("issuer")
	}
	var out models.Issuer
	for _, f := range []struct {
		tag string
		dst *string
	}{
		{"issuerName", &out.Name},
		{"issuerCik", &out.CIK},
		{"issuerTradingSymbol", &out.TradingSymbol},
	} {
		v, ok := issuer.child(f.tag).ownText()
		if !ok {
			return models.Issuer{}, missing("issuer/" + f.tag)
		}
		*f.dst = v
	}
	return out, nil
}

// --- transactions ---

func decodeNonDerivative(root *node) ([]models.NonDerivativeTransaction, error) {
	rows := root.descendants("nonDerivativeTransaction")
	out := make([]models.NonDerivativeTransaction, 0, len(rows))
	for i, row := range rows {
		at := fmt.Sprintf("nonDerivativeTransaction[%d]", i)

		common, err := decodeCommon(row, at)
		if err != nil {
			return nil, err
		}
		out = append(out, models.NonDerivativeTransaction{
			SecurityTitle: common.title,
			Date:          common.date,
			Codes:         common.codes,
			Effect:        decodeEffect(row.child("transactionAmounts")),
			SharesOwned:   common.owned,
			Ownership:     common.ownership,
		})
	}
	return out, nil
}

func decodeDerivative(root *node) ([]models.DerivativeTransaction, error) {
	rows := root.descendants("derivativeTransaction")
	out := make([]models.DerivativeTransaction, 0, len(rows))
	for i, row := range rows {
		at := fmt.Sprintf("derivativeTransaction[%d]", i)

		common, err := decodeCommon(row, at)
		if err != nil {
			return nil, err
		}
		amounts := row.child("transactionAmounts")
		tx := models.DerivativeTransaction{
			SecurityTitle:  common.title,
			Date:           common.date,
			Codes:          common.codes,
			Count:          decodeCount(amounts),
			Underlying:     decodeUnderlying(row.child("underlyingSecurity")),
			PricePerShare:  optionalFloat(amounts.child("transactionPricePerShare")),
			ExercisePrice:  optionalFloat(row.child("conversionOrExercisePrice")),
			ExpirationDate: optionalString(row.child("expirationDate")),
			SharesOwned:    common.owned,
			Ownership:      common.ownership,
		}
		out = append(out, tx)
	}
	return out, nil
}

// rowCommon holds the fields shared by both transaction tables.
type rowCommon struct {
	title     string
	date      *string
	codes     []models.TransactionCode
	owned     float64
	ownership models.Ownership
}

func decodeCommon(row *node, at string) (rowCommon, error) {
	var c rowCommon

	title, ok := row.child("securityTitle").value()
	if !ok {
		return c, missing(at + "/securityTitle")
	}
	c.title = title
	c.date = optionalString(row.child("transactionDate"))

	if code, ok := row.path("transactionCoding", "transactionCode").ownText(); ok {
		c.codes = ParseTransactionCodes(code)
	}

	ownedNode := row.path("postTransactionAmounts", "sharesOwnedFollowingTransaction")
	raw, ok := ownedNode.value()
	if !ok {
		return c, missing(at + "/postTransactionAmounts/sharesOwnedFollowingTransaction")
	}
	owned, err := parseFloat(raw)
	if err != nil {
		return c, &ErrInvalidNumber{Field: at + "/sharesOwnedFollowingTransaction", Value: raw, Err: err}
	}
	c.owned = owned

	ownership, err := decodeOwnership(row.child("ownershipNature"), at)
	if err != nil {
		return c, err
	}
	c.ownership = ownership
	return c, nil
}

func decodeOwnership(nature *node, at string) (models.Ownership, error) {
	if nature == nil {
		return models.Ownership{}, missing(at + "/ownershipNature")
	}
	token, ok := nature.child("directOrIndirectOwnership").value()
	if !ok {
		return models.Ownership{}, missing(at + "/ownershipNature/directOrIndirectOwnership")
	}
	ownership, err := ParseOwnershipKind(token, func() (string, bool) {
		return nature.child("natureOfOwnership").value()
	})
	if err != nil {
		return models.Ownership{}, missing(at + "/ownershipNature/natureOfOwnership")
	}
	return ownership, nil
}

// decodeEffect collects shares, direction and price. If any of them is
// missing or unparsable the effect is absent as a whole.
func decodeEffect(amounts *node) *models.TransactionEffect {
	sharesRaw, sharesOK := amounts.child("transactionShares").value()
	codeRaw, codeOK := amounts.child("transactionAcquiredDisposedCode").value()
	priceRaw, priceOK := amounts.child("transactionPricePerShare").value()
	if !sharesOK || !codeOK || !priceOK {
		return nil
	}

	shares, err := parseInt(sharesRaw)
	if err != nil {
		return nil
	}
	dir, ok := ParseAcquiredDisposed(codeRaw)
	if !ok {
		return nil
	}
	price, err := parseFloat(priceRaw)
	if err != nil {
		return nil
	}
	return &models.TransactionEffect{Shares: shares, Direction: dir, PricePerShare: price}
}

func decodeCount(amounts *node) *models.DerivativeCount {
	shares, sharesOK := amounts.child("transactionShares").value()
	code, codeOK := amounts.child("transactionAcquiredDisposedCode").value()
	if !sharesOK || !codeOK {
		return nil
	}
	return ParseDerivativeCount(shares, code)
}

func decodeUnderlying(u *node) *models.UnderlyingSecurity {
	title, titleOK := u.child("underlyingSecurityTitle").value()
	sharesRaw, sharesOK := u.child("underlyingSecurityShares").value()
	if !titleOK || !sharesOK {
		return nil
	}
	shares, err := parseFloat(sharesRaw)
	if err != nil {
		return nil
	}
	return &models.UnderlyingSecurity{Title: title, Shares: shares}
}

func optionalString(n *node) *string {
	v, ok := n.value()
	if !ok {
		return nil
	}
	return &v
}

func optionalFloat(n *node) *float64 {
	v, ok := n.value()
	if !ok {
		return nil
	}
	f, err := parseFloat(v)
	if err != nil {
		return nil
	}
	return &f
}
