package rules

import (
	"slices"
	"strings"

	"smarena/pkg/models"
)

const passedReviewActivityText = "Sykmeldingsperioden har passert tidspunkt for vurdering av aktivitetsmuligheter. " +
	"Åpne dokumentet for å se behandlers innspill til aktivitetsmuligheter."

// Declaration order is evaluation order. Names are the merknad codes Arena
// already knows, so a few differ from the descriptive rule keys:
// PASSED_REVIEW_WINDOW_LEGACY is ..._BEFORE_RULESETT_2, PASSED_REVIEW_WINDOW_CURRENT
// is ..._AFTER_RULESETT_2, EXTENDED_ANSWERS_PRESENT is DYNAMIC_QUESTIONS and
// EXTENDED_ANSWERS_DISABILITY_BENEFIT is DYNAMIC_QUESTIONS_AAP.
var validationRuleChain = []Rule{
	{
		ID:             ruleID(RuleIDTravelSubsidySpecified),
		Name:           "TRAVEL_SUBSIDY_SPECIFIED",
		Description:    "Kun reisetilskudd er angitt. Melding sendt til oppfølging i Arena, skal ikke registreres i Infotrygd.",
		HendelseType:   HendelseTypeInformasjonFraSykmelding,
		HendelseStatus: HendelseStatusPlanlagt,
		HendelseTekst:  "Kun reisetilskudd er angitt",
		Predicate:      travelSubsidySpecified,
	},
	{
		ID:             ruleID(RuleIDMessageToEmployer),
		Name:           "MESSAGE_TO_EMPLOYER",
		Description:    "Hvis sykmelder har gitt veiledning til arbeidsgiver/arbeidstaker (felt 9.1).",
		HendelseType:   HendelseTypeVeiledningTilArbeidsgiver,
		HendelseStatus: HendelseStatusUtfort,
		HendelseTekst:  "Sykmelder har gitt veiledning til arbeidsgiver/arbeidstaker (felt 9.1)",
		Predicate:      messageToEmployer,
	},
	{
		ID:             ruleID(RuleIDPassedReviewActivity),
		Name:           "PASSED_REVIEW_ACTIVITY_OPPERTUNITIES_BEFORE_RULESETT_2",
		Description:    passedReviewActivityText,
		HendelseType:   HendelseTypeInformasjonFraSykmelding,
		HendelseStatus: HendelseStatusUtfort,
		HendelseTekst:  passedReviewActivityText,
		Predicate:      passedReviewWindow(56, "", "1"),
	},
	{
		ID:             ruleID(RuleIDPassedReviewActivity),
		Name:           "PASSED_REVIEW_ACTIVITY_OPPERTUNITIES_AFTER_RULESETT_2",
		Description:    passedReviewActivityText,
		HendelseType:   HendelseTypeInformasjonFraSykmelding,
		HendelseStatus: HendelseStatusUtfort,
		HendelseTekst:  passedReviewActivityText,
		Predicate:      passedReviewWindow(49, "2", "3"),
	},
	{
		ID:             ruleID(RuleIDDynamicQuestions),
		Name:           "DYNAMIC_QUESTIONS",
		Description:    "Hvis utdypende opplysninger om medisinske er oppgitt ved 7/8, 17, 39 uker settes merknad",
		HendelseType:   HendelseTypeInformasjonFraSykmelding,
		HendelseStatus: HendelseStatusUtfort,
		HendelseTekst:  "Utdypende opplysninger foreligger.",
		Predicate:      extendedAnswersPresent,
	},
	{
		ID:             ruleID(RuleIDDynamicQuestionsAAP),
		Name:           "DYNAMIC_QUESTIONS_AAP",
		Description:    "Hvis utdypende opplysninger foreligger og pasienten søker om AAP",
		HendelseType:   HendelseTypeInformasjonFraSykmelding,
		HendelseStatus: HendelseStatusUtfort,
		HendelseTekst:  "Opplysninger om AAP foreligger",
		Predicate:      disabilityBenefitAnswers,
	},
}

// ValidationRuleChain returns the ordered rule set evaluated for every joined record.
func ValidationRuleChain() []Rule {
	return slices.Clone(validationRuleChain)
}

func travelSubsidySpecified(sykmelding models.Sykmelding, _ Metadata) bool {
	return slices.ContainsFunc(sykmelding.Perioder, func(p models.Periode) bool {
		return p.Reisetilskudd
	})
}

func messageToEmployer(sykmelding models.Sykmelding, _ Metadata) bool {
	return strings.TrimSpace(models.StringValue(sykmelding.MeldingTilArbeidsgiver)) != ""
}

// passedReviewWindow matches when any period spans more than maxDays and the
// ruleset version is one of versions. Versions are compared literally.
func passedReviewWindow(maxDays int, versions ...string) Predicate {
	return func(sykmelding models.Sykmelding, metadata Metadata) bool {
		if !slices.Contains(versions, metadata.RulesetVersion) {
			return false
		}
		return slices.ContainsFunc(sykmelding.Perioder, func(p models.Periode) bool {
			return p.Fom.DaysUntil(p.Tom) > maxDays
		})
	}
}

func extendedAnswersPresent(sykmelding models.Sykmelding, _ Metadata) bool {
	return len(sykmelding.UtdypendeOpplysninger) > 0
}

func disabilityBenefitAnswers(sykmelding models.Sykmelding, _ Metadata) bool {
	_, ok := sykmelding.UtdypendeOpplysninger[DisabilityBenefitQuestionGroup]
	return ok
}
