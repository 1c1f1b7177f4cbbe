package entity

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/x-consortia/donor-curator/internal/platform/remote"
)

// Consortium identifies which federated provenance database a donor
// belongs to. The donor id prefix is the only discriminator.
type Consortium string

const (
	ConsortiumHuBMAP Consortium = "hubmapconsortium"
	ConsortiumSenNet Consortium = "sennetconsortium"
)

// donorIDPattern is the consortium id format: CCCnnn.XXXX.nnn.
var donorIDPattern = regexp.MustCompile(`^[^0-9]{3}[0-9]{3}\.[^0-9]{4}\.[0-9]{3}$`)

// ConsortiumForID derives the consortium from a donor id and validates
// the id format before any upstream call is made.
func ConsortiumForID(donorID string) (Consortium, error) {
	if !donorIDPattern.MatchString(donorID) {
		return "", &remote.Error{
			Kind:    remote.KindBadRequest,
			Status:  http.StatusBadRequest,
			Message: "invalid donor id " + donorID + "; format: CCCnnn.XXXX.nnn with CCC either HBM or SNT",
		}
	}

	switch strings.ToUpper(donorID[:3]) {
	case "HBM":
		return ConsortiumHuBMAP, nil
	case "SNT":
		return ConsortiumSenNet, nil
	default:
		return "", &remote.Error{
			Kind:    remote.KindBadRequest,
			Status:  http.StatusBadRequest,
			Message: "invalid donor id prefix " + donorID[:3] + ": expected HBM (HuBMAP) or SNT (SenNet)",
		}
	}
}

// ShortName returns the consortium name without the "consortium" suffix,
// used to build export filenames.
func (c Consortium) ShortName() string {
	return strings.TrimSuffix(string(c), "consortium")
}
