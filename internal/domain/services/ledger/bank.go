package ledger

import (
	"fmt"
	"strings"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
)

const (
	// PartnerBankName is the bank shown on every generated deposit target
	PartnerBankName = "FlowLux Banking Partner"
	// PartnerRoutingNumber is the fixed routing number of the partner bank
	PartnerRoutingNumber = "072403473"
	// ReferenceCodePrefix starts every deposit reference code
	ReferenceCodePrefix = "FLX-"
)

// BankDetailGenerator creates the deposit target of a new session
type BankDetailGenerator interface {
	Generate() entities.BankDetails
}

// RandomBankDetails generates a 10-digit account number and a FLX-XXXXXX reference code
type RandomBankDetails struct {
	rnd *lockedRand
}

// NewRandomBankDetails creates a generator. A zero seed draws from the runtime source.
func NewRandomBankDetails(seed uint64) *RandomBankDetails {
	return &RandomBankDetails{rnd: newLockedRand(seed)}
}

// Generate implements BankDetailGenerator
func (g *RandomBankDetails) Generate() entities.BankDetails {
	return entities.BankDetails{
		BankName:      PartnerBankName,
		AccountNumber: fmt.Sprintf("%010d", g.rnd.IntN(10_000_000_000)),
		RoutingNumber: PartnerRoutingNumber,
		ReferenceCode: ReferenceCodePrefix + strings.ToUpper(g.rnd.base36(6)),
	}
}
