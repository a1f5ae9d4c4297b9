package model

// ScenarioName identifies a canonical financial event archetype.
// The set mirrors archetypes grounded in academic theory and major
// historical precedents; ScenarioOther preserves extensibility.
type ScenarioName string

const (
	ScenarioBankRun               ScenarioName = "Bank Run"
	ScenarioPonziScheme           ScenarioName = "Ponzi Scheme"
	ScenarioShortSqueeze          ScenarioName = "Short Squeeze"
	ScenarioSovereignDefault      ScenarioName = "Sovereign Default"
	ScenarioLiquiditySpiral       ScenarioName = "Liquidity Spiral"
	ScenarioMarketManipulation    ScenarioName = "Market Manipulation"
	ScenarioRegulatoryArbitrage   ScenarioName = "Regulatory Arbitrage"
	ScenarioCreditEvent           ScenarioName = "Credit Event"
	ScenarioSystemicShock         ScenarioName = "Systemic Shock"
	ScenarioAccountingFraud       ScenarioName = "Accounting Fraud"
	ScenarioLeverageCycleCollapse ScenarioName = "Leverage Cycle Collapse"
	ScenarioStablecoinDepeg       ScenarioName = "Stablecoin Depeg"
	ScenarioOther                 ScenarioName = "Other"
)

// EpisodeType classifies an atomic, time-stamped, observable occurrence with
// direct market or regulatory impact. Malicious-act types apply only to
// fraud/manipulation scenarios.
type EpisodeType string

const (
	// Information disclosure events
	EpisodeFinancialStatementDisclosure EpisodeType = "Financial Statement Disclosure"
	EpisodeEarningsGuidanceUpdate       EpisodeType = "Earnings Guidance Update"
	EpisodeWhistleblowerReport          EpisodeType = "Whistleblower Report"
	EpisodeShortSellerReport            EpisodeType = "Short Seller Report"
	EpisodeAuditorResignation           EpisodeType = "Auditor Resignation"
	EpisodeRatingAgencyDowngrade        EpisodeType = "Rating Agency Downgrade"

	// Trading and liquidity actions
	EpisodeLargeScaleRedemption      EpisodeType = "Large-Scale Redemption"
	EpisodeMarginCallIssuance        EpisodeType = "Margin Call Issuance"
	EpisodeForcedAssetLiquidation    EpisodeType = "Forced Asset Liquidation"
	EpisodeCollateralRehypothecation EpisodeType = "Collateral Rehypothecation"
	EpisodePrimeBrokerUnwind         EpisodeType = "Prime Broker Position Unwind"
	EpisodeRetailPanicSelling        EpisodeType = "Retail Investor Panic Selling"
	EpisodeCollateralHaircutIncrease EpisodeType = "Collateral Haircut Increase"

	// Regulatory and legal actions
	EpisodeRegulatoryInvestigation EpisodeType = "Regulatory Investigation Launch"
	EpisodeEnforcementAction       EpisodeType = "Securities Enforcement Action"
	EpisodeTradingSuspension       EpisodeType = "Trading Suspension"
	EpisodeBankruptcyFiling        EpisodeType = "Bankruptcy Filing"
	EpisodeReceivershipOrder       EpisodeType = "Court Receivership Order"
	EpisodeEmergencyLending        EpisodeType = "Central Bank Emergency Lending"

	// Market infrastructure events
	EpisodePriceLimitHit             EpisodeType = "Exchange Price Limit Hit"
	EpisodeClearingDefault           EpisodeType = "Clearing House Default Declaration"
	EpisodeStablecoinRedemptionFocus EpisodeType = "Stablecoin Redemption Suspension"
	EpisodeCrossMarginCascade        EpisodeType = "Cross-Margin Call Cascade"

	// Fraud and manipulation behaviors (malicious-act group)
	EpisodeFictitiousRevenue EpisodeType = "Fictitious Revenue Recording"
	EpisodeFakeCashBalance   EpisodeType = "Fake Cash Balance Fabrication"
	EpisodePumpAndDump       EpisodeType = "Pump and Dump Trade Pattern"

	EpisodeOther EpisodeType = "Other"
)

// maliciousEpisodeTypes are legitimate only inside fraud or manipulation
// scenarios.
var maliciousEpisodeTypes = map[EpisodeType]bool{
	EpisodeFictitiousRevenue: true,
	EpisodeFakeCashBalance:   true,
	EpisodePumpAndDump:       true,
}

// IsMalicious reports whether the type belongs to the fraud/manipulation group.
func (t EpisodeType) IsMalicious() bool {
	return maliciousEpisodeTypes[t]
}

// AllEpisodeTypes enumerates the closed episode taxonomy.
func AllEpisodeTypes() []EpisodeType {
	return []EpisodeType{
		EpisodeFinancialStatementDisclosure, EpisodeEarningsGuidanceUpdate,
		EpisodeWhistleblowerReport, EpisodeShortSellerReport,
		EpisodeAuditorResignation, EpisodeRatingAgencyDowngrade,
		EpisodeLargeScaleRedemption, EpisodeMarginCallIssuance,
		EpisodeForcedAssetLiquidation, EpisodeCollateralRehypothecation,
		EpisodePrimeBrokerUnwind, EpisodeRetailPanicSelling,
		EpisodeCollateralHaircutIncrease, EpisodeRegulatoryInvestigation,
		EpisodeEnforcementAction, EpisodeTradingSuspension,
		EpisodeBankruptcyFiling, EpisodeReceivershipOrder,
		EpisodeEmergencyLending, EpisodePriceLimitHit,
		EpisodeClearingDefault, EpisodeStablecoinRedemptionFocus,
		EpisodeCrossMarginCascade, EpisodeFictitiousRevenue,
		EpisodeFakeCashBalance, EpisodePumpAndDump, EpisodeOther,
	}
}

// ParticipantRole is a functional category of an actor in a financial event,
// defined by institutional mandate, market function, or information position.
type ParticipantRole string

const (
	// Issuers and operators
	RoleIssuer           ParticipantRole = "Issuer"
	RoleFundManager      ParticipantRole = "Fund Manager"
	RolePlatformOperator ParticipantRole = "Platform Operator"

	// Regulators and public authorities
	RoleFinancialRegulator    ParticipantRole = "Financial Regulator"
	RoleCentralBank           ParticipantRole = "Central Bank"
	RoleDepositInsurance      ParticipantRole = "Deposit Insurance Agency"
	RoleSecuritiesEnforcement ParticipantRole = "Securities Enforcement Authority"

	// Market participants
	RoleRetailInvestor        ParticipantRole = "Retail Investor"
	RoleInstitutionalInvestor ParticipantRole = "Institutional Investor"
	RoleHedgeFund             ParticipantRole = "Hedge Fund"
	RolePrimeBroker           ParticipantRole = "Prime Broker"
	RoleMarketMaker           ParticipantRole = "Market Maker"
	RoleShortSeller           ParticipantRole = "Short Seller"
	RoleLiquidityProvider     ParticipantRole = "Liquidity Provider"

	// Information intermediaries
	RoleExternalAuditor  ParticipantRole = "External Auditor"
	RoleRatingAgency     ParticipantRole = "Credit Rating Agency"
	RoleFinancialMedia   ParticipantRole = "Financial News Media"
	RoleResearchFirm     ParticipantRole = "Independent Research Firm"

	// Financial infrastructure
	RoleCentralCounterparty ParticipantRole = "Central Counterparty (CCP)"
	RoleCustodianBank       ParticipantRole = "Custodian Bank"
	RolePaymentOperator     ParticipantRole = "Payment System Operator"

	RoleOther ParticipantRole = "Other"
)

// AllParticipantRoles enumerates the closed role taxonomy.
func AllParticipantRoles() []ParticipantRole {
	return []ParticipantRole{
		RoleIssuer, RoleFundManager, RolePlatformOperator,
		RoleFinancialRegulator, RoleCentralBank, RoleDepositInsurance,
		RoleSecuritiesEnforcement, RoleRetailInvestor,
		RoleInstitutionalInvestor, RoleHedgeFund, RolePrimeBroker,
		RoleMarketMaker, RoleShortSeller, RoleLiquidityProvider,
		RoleExternalAuditor, RoleRatingAgency, RoleFinancialMedia,
		RoleResearchFirm, RoleCentralCounterparty, RoleCustodianBank,
		RolePaymentOperator, RoleOther,
	}
}
