package extract

import (
	"strings"

	"github.com/avolkhin/fincascade/internal/model"
)

// episodeTypeSynonyms maps normalized free-form oracle labels onto the closed
// taxonomy. Unmatched labels fall back to EpisodeOther rather than being
// dropped, so an unfamiliar label never filters evidence.
var episodeTypeSynonyms = map[string]model.EpisodeType{
	"financial statement disclosure": model.EpisodeFinancialStatementDisclosure,
	"earnings report":                model.EpisodeFinancialStatementDisclosure,
	"annual report":                  model.EpisodeFinancialStatementDisclosure,
	"disclosure":                     model.EpisodeFinancialStatementDisclosure,
	"earnings guidance update":       model.EpisodeEarningsGuidanceUpdate,
	"guidance revision":              model.EpisodeEarningsGuidanceUpdate,
	"profit warning":                 model.EpisodeEarningsGuidanceUpdate,
	"whistleblower report":           model.EpisodeWhistleblowerReport,
	"short seller report":            model.EpisodeShortSellerReport,
	"short report":                   model.EpisodeShortSellerReport,
	"auditor resignation":            model.EpisodeAuditorResignation,
	"rating agency downgrade":        model.EpisodeRatingAgencyDowngrade,
	"credit downgrade":               model.EpisodeRatingAgencyDowngrade,
	"downgrade":                      model.EpisodeRatingAgencyDowngrade,

	"large scale redemption": model.EpisodeLargeScaleRedemption,
	"large-scale redemption": model.EpisodeLargeScaleRedemption,
	"deposit outflow":        model.EpisodeLargeScaleRedemption,
	"bank run":               model.EpisodeLargeScaleRedemption,
	"mass withdrawal":        model.EpisodeLargeScaleRedemption,
	"margin call issuance":   model.EpisodeMarginCallIssuance,
	"margin call":            model.EpisodeMarginCallIssuance,
	"forced asset liquidation": model.EpisodeForcedAssetLiquidation,
	"forced liquidation":       model.EpisodeForcedAssetLiquidation,
	"fire sale":                model.EpisodeForcedAssetLiquidation,
	"collateral rehypothecation": model.EpisodeCollateralRehypothecation,
	"prime broker unwind":        model.EpisodePrimeBrokerUnwind,
	"retail panic selling":       model.EpisodeRetailPanicSelling,
	"panic selling":              model.EpisodeRetailPanicSelling,
	"collateral haircut increase": model.EpisodeCollateralHaircutIncrease,
	"haircut increase":            model.EpisodeCollateralHaircutIncrease,

	"regulatory investigation": model.EpisodeRegulatoryInvestigation,
	"investigation":            model.EpisodeRegulatoryInvestigation,
	"regulatory probe":         model.EpisodeRegulatoryInvestigation,
	"enforcement action":       model.EpisodeEnforcementAction,
	"regulatory action":        model.EpisodeEnforcementAction,
	"trading suspension":       model.EpisodeTradingSuspension,
	"trading halt":             model.EpisodeTradingSuspension,
	"bankruptcy filing":        model.EpisodeBankruptcyFiling,
	"bankruptcy":               model.EpisodeBankruptcyFiling,
	"chapter 11":               model.EpisodeBankruptcyFiling,
	"receivership order":       model.EpisodeReceivershipOrder,
	"receivership":             model.EpisodeReceivershipOrder,
	"emergency lending":        model.EpisodeEmergencyLending,
	"bailout":                  model.EpisodeEmergencyLending,
	"liquidity facility":       model.EpisodeEmergencyLending,

	"price limit hit":             model.EpisodePriceLimitHit,
	"circuit breaker":             model.EpisodePriceLimitHit,
	"clearing default":            model.EpisodeClearingDefault,
	"stablecoin redemption focus": model.EpisodeStablecoinRedemptionFocus,
	"stablecoin depeg":            model.EpisodeStablecoinRedemptionFocus,
	"cross margin cascade":        model.EpisodeCrossMarginCascade,
	"cross-margin cascade":        model.EpisodeCrossMarginCascade,

	"fictitious revenue": model.EpisodeFictitiousRevenue,
	"revenue fabrication": model.EpisodeFictitiousRevenue,
	"fake cash balance":   model.EpisodeFakeCashBalance,
	"pump and dump":       model.EpisodePumpAndDump,
	"pump-and-dump":       model.EpisodePumpAndDump,
}

// NormalizeEpisodeType maps a free-form oracle label onto the taxonomy.
func NormalizeEpisodeType(label string) model.EpisodeType {
	norm := normalizeLabel(label)
	if norm == "" {
		return model.EpisodeOther
	}
	if t, ok := episodeTypeSynonyms[norm]; ok {
		return t
	}
	// The oracle may already emit taxonomy values.
	for _, known := range model.AllEpisodeTypes() {
		if normalizeLabel(string(known)) == norm {
			return known
		}
	}
	return model.EpisodeOther
}

var roleSynonyms = map[string]model.ParticipantRole{
	"issuer":                model.RoleIssuer,
	"bank":                  model.RoleIssuer,
	"company":               model.RoleIssuer,
	"fund manager":          model.RoleFundManager,
	"asset manager":         model.RoleFundManager,
	"platform operator":     model.RolePlatformOperator,
	"exchange":              model.RolePlatformOperator,
	"financial regulator":   model.RoleFinancialRegulator,
	"regulator":             model.RoleFinancialRegulator,
	"central bank":          model.RoleCentralBank,
	"deposit insurance":     model.RoleDepositInsurance,
	"deposit insurer":       model.RoleDepositInsurance,
	"securities enforcement": model.RoleSecuritiesEnforcement,
	"retail investor":        model.RoleRetailInvestor,
	"retail investors":       model.RoleRetailInvestor,
	"depositor":              model.RoleRetailInvestor,
	"depositors":             model.RoleRetailInvestor,
	"institutional investor": model.RoleInstitutionalInvestor,
	"hedge fund":             model.RoleHedgeFund,
	"prime broker":           model.RolePrimeBroker,
	"market maker":           model.RoleMarketMaker,
	"short seller":           model.RoleShortSeller,
	"liquidity provider":     model.RoleLiquidityProvider,
	"external auditor":       model.RoleExternalAuditor,
	"auditor":                model.RoleExternalAuditor,
	"rating agency":          model.RoleRatingAgency,
	"financial media":        model.RoleFinancialMedia,
	"media":                  model.RoleFinancialMedia,
	"research firm":          model.RoleResearchFirm,
	"central counterparty":   model.RoleCentralCounterparty,
	"custodian bank":         model.RoleCustodianBank,
	"custodian":              model.RoleCustodianBank,
	"payment operator":       model.RolePaymentOperator,
}

// NormalizeRole maps a free-form role label onto the taxonomy.
func NormalizeRole(label string) model.ParticipantRole {
	norm := normalizeLabel(label)
	if norm == "" {
		return model.RoleOther
	}
	if r, ok := roleSynonyms[norm]; ok {
		return r
	}
	for _, known := range model.AllParticipantRoles() {
		if normalizeLabel(string(known)) == norm {
			return known
		}
	}
	return model.RoleOther
}

func normalizeLabel(label string) string {
	norm := strings.ToLower(strings.TrimSpace(label))
	norm = strings.ReplaceAll(norm, "_", " ")
	return strings.Join(strings.Fields(norm), " ")
}
