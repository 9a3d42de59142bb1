package rules

import (
	"strconv"

	"smarena/pkg/models"
)

// HendelseType classifies the Arena event a rule produces.
type HendelseType string

const (
	HendelseTypeVeiledningTilArbeidsgiver HendelseType = "VEIL_AG_AT"
	HendelseTypeInformasjonFraSykmelding  HendelseType = "MESM_I_SM"
	HendelseTypeVurderOppfolging          HendelseType = "MESM_V_OPF"
)

// HendelseStatus is the Arena status of the produced event.
type HendelseStatus string

const (
	HendelseStatusPlanlagt HendelseStatus = "PLANLAGT"
	HendelseStatusUtfort   HendelseStatus = "UTFORT"
)

// Rule ids are stable. The event mapper selects free text by id, so a rule that
// needs physician text must be added to that dispatch as well.
const (
	RuleIDTravelSubsidySpecified   = 1608
	RuleIDMessageToEmployer        = 1609
	RuleIDPassedReviewActivity     = 1615
	RuleIDMessageToNAV             = 1616
	RuleIDDynamicQuestions         = 1617
	RuleIDOtherMeasures            = 1618
	RuleIDDynamicQuestionsAAP      = 1620
	DisabilityBenefitQuestionGroup = "6.6"
)

// Metadata is the evaluation context passed next to the sykmelding.
type Metadata struct {
	SignatureDate  models.DateTime
	ReceivedDate   models.DateTime
	RulesetVersion string
}

// MetadataFor builds the evaluation context from a received record.
func MetadataFor(r models.ReceivedSykmelding) Metadata {
	return Metadata{
		SignatureDate:  r.Sykmelding.SignaturDato,
		ReceivedDate:   r.MottattDato,
		RulesetVersion: r.RulesetVersionOrEmpty(),
	}
}

// Predicate must be pure and read nothing but its arguments.
type Predicate func(sykmelding models.Sykmelding, metadata Metadata) bool

type Rule struct {
	ID             *int
	Name           string
	Description    string
	HendelseType   HendelseType
	HendelseStatus HendelseStatus
	HendelseTekst  string
	Predicate      Predicate
}

// IDString renders the rule id, or "" when the rule has none.
func (r Rule) IDString() string {
	if r.ID == nil {
		return ""
	}
	return strconv.Itoa(*r.ID)
}

func Names(rules []Rule) []string {
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.Name)
	}
	return names
}

func ruleID(id int) *int {
	return &id
}
