package prior

import "github.com/avolkhin/fincascade/internal/model"

// builtinScenarios returns the canonical archetype catalog. Definitions and
// exemplars follow established case histories; stage names are typical, not
// binding, and the planner treats them purely as hints.
func builtinScenarios() []model.FinanceScenario {
	return []model.FinanceScenario{
		{
			Name:             model.ScenarioBankRun,
			Definition:       "A self-fulfilling loss of confidence leading to mass withdrawal of funds from a solvent but illiquid institution.",
			TheoreticalBasis: "Diamond-Dybvig coordination failure among depositors.",
			StandardStages:   []string{"Incubation", "Precipitating Event", "Liquidity Run", "Intervention", "Resolution"},
			KeyEpisodeTypes: []model.EpisodeType{
				model.EpisodeLargeScaleRedemption,
				model.EpisodeForcedAssetLiquidation,
				model.EpisodeReceivershipOrder,
				model.EpisodeEmergencyLending,
			},
			KeyRoles: []model.ParticipantRole{
				model.RoleIssuer,
				model.RoleDepositInsurance,
				model.RoleCentralBank,
				model.RoleFinancialRegulator,
			},
			SignatureIndicators: []string{"deposit outflow", "withdrawal", "uninsured depositors", "receivership"},
			HistoricalExemplars: []string{"Silicon Valley Bank collapse (2023)", "Northern Rock (2007)"},
		},
		{
			Name:             model.ScenarioPonziScheme,
			Definition:       "A fraudulent operation paying returns to earlier investors from funds of later investors, not from profit.",
			TheoreticalBasis: "Unsustainable cash-flow pyramid dependent on new inflows.",
			StandardStages:   []string{"Bait Deployment", "Expansion", "Strain", "Exposure", "Collapse"},
			KeyEpisodeTypes: []model.EpisodeType{
				model.EpisodeWhistleblowerReport,
				model.EpisodeLargeScaleRedemption,
				model.EpisodeRegulatoryInvestigation,
				model.EpisodeBankruptcyFiling,
			},
			KeyRoles: []model.ParticipantRole{
				model.RoleFundManager,
				model.RoleRetailInvestor,
				model.RoleSecuritiesEnforcement,
			},
			SignatureIndicators: []string{"guaranteed returns", "redemption halt", "feeder fund"},
			HistoricalExemplars: []string{"Bernie Madoff investment scandal (2008)", "Stanford Financial (2009)"},
		},
		{
			Name:             model.ScenarioShortSqueeze,
			Definition:       "A rapid price increase triggered when short sellers cover positions amid rising prices and margin pressure.",
			TheoreticalBasis: "Positive feedback between forced covering and price momentum.",
			StandardStages:   []string{"Position Build-Up", "Trigger", "Squeeze", "Unwind"},
			KeyEpisodeTypes: []model.EpisodeType{
				model.EpisodeMarginCallIssuance,
				model.EpisodePriceLimitHit,
				model.EpisodeRetailPanicSelling,
				model.EpisodeTradingSuspension,
			},
			KeyRoles: []model.ParticipantRole{
				model.RoleShortSeller,
				model.RoleHedgeFund,
				model.RoleRetailInvestor,
				model.RoleMarketMaker,
			},
			SignatureIndicators: []string{"short interest", "margin call", "covering"},
			HistoricalExemplars: []string{"GameStop short squeeze (2021)", "Volkswagen vs. Porsche (2008)"},
		},
		{
			Name:             model.ScenarioSovereignDefault,
			Definition:       "A national government's failure to meet its debt obligations, through non-payment or restructuring.",
			TheoreticalBasis: "Sovereign debt sustainability and willingness-to-pay models.",
			StandardStages:   []string{"Debt Accumulation", "Market Stress", "Default Event", "Restructuring"},
			KeyEpisodeTypes: []model.EpisodeType{
				model.EpisodeRatingAgencyDowngrade,
				model.EpisodeClearingDefault,
				model.EpisodeEmergencyLending,
			},
			KeyRoles: []model.ParticipantRole{
				model.RoleIssuer,
				model.RoleRatingAgency,
				model.RoleCentralBank,
				model.RoleInstitutionalInvestor,
			},
			SignatureIndicators: []string{"missed payment", "restructuring", "default"},
			HistoricalExemplars: []string{"Greece sovereign debt crisis (2012)", "Argentina default (2001)"},
		},
		{
			Name:             model.ScenarioLiquiditySpiral,
			Definition:       "A self-reinforcing cycle where asset price declines force leveraged entities to sell, further depressing prices.",
			TheoreticalBasis: "Brunnermeier-Pedersen funding/market liquidity feedback.",
			StandardStages:   []string{"Leverage Build-Up", "Initial Shock", "Fire Sales", "Stabilization"},
			KeyEpisodeTypes: []model.EpisodeType{
				model.EpisodeMarginCallIssuance,
				model.EpisodeForcedAssetLiquidation,
				model.EpisodeCollateralHaircutIncrease,
				model.EpisodeCrossMarginCascade,
			},
			KeyRoles: []model.ParticipantRole{
				model.RoleHedgeFund,
				model.RolePrimeBroker,
				model.RoleLiquidityProvider,
			},
			SignatureIndicators: []string{"fire sale", "haircut", "margin spiral", "dash for cash"},
			HistoricalExemplars: []string{"Global financial crisis margin spiral (2008)", "March 2020 dash for cash"},
		},
		{
			Name:             model.ScenarioMarketManipulation,
			Definition:       "Deliberate actions to distort prices or create false market activity.",
			TheoreticalBasis: "Information asymmetry exploited against market integrity rules.",
			StandardStages:   []string{"Scheme Setup", "Price Distortion", "Profit Taking", "Enforcement"},
			KeyEpisodeTypes: []model.EpisodeType{
				model.EpisodePumpAndDump,
				model.EpisodeEnforcementAction,
				model.EpisodeTradingSuspension,
			},
			KeyRoles: []model.ParticipantRole{
				model.RoleFundManager,
				model.RoleRetailInvestor,
				model.RoleSecuritiesEnforcement,
				model.RoleFinancialMedia,
			},
			SignatureIndicators: []string{"spoofing", "pump", "coordinated buying", "wash trades"},
			HistoricalExemplars: []string{"Stratton Oakmont (1990s)", "DOJ spoofing prosecutions"},
		},
		{
			Name:             model.ScenarioRegulatoryArbitrage,
			Definition:       "Exploiting differences in regulatory regimes to reduce capital, liquidity, or reporting requirements.",
			TheoreticalBasis: "Regulatory competition and shadow-banking migration.",
			StandardStages:   []string{"Gap Identification", "Migration", "Risk Accumulation", "Regime Response"},
			KeyEpisodeTypes: []model.EpisodeType{
				model.EpisodeRegulatoryInvestigation,
				model.EpisodeCollateralRehypothecation,
			},
			KeyRoles: []model.ParticipantRole{
				model.RolePlatformOperator,
				model.RoleFinancialRegulator,
			},
			SignatureIndicators: []string{"jurisdiction shopping", "off-balance-sheet", "lighter-touch regime"},
			HistoricalExemplars: []string{"Pre-2008 shadow banking growth", "Crypto firms relocating jurisdictions"},
		},
		{
			Name:             model.ScenarioCreditEvent,
			Definition:       "A trigger event (e.g., bankruptcy, failure to pay) as defined in credit derivatives contracts.",
			TheoreticalBasis: "ISDA credit event determination framework.",
			StandardStages:   []string{"Credit Deterioration", "Trigger", "Settlement"},
			KeyEpisodeTypes: []model.EpisodeType{
				model.EpisodeRatingAgencyDowngrade,
				model.EpisodeBankruptcyFiling,
				model.EpisodeClearingDefault,
			},
			KeyRoles: []model.ParticipantRole{
				model.RoleIssuer,
				model.RoleRatingAgency,
				model.RoleCentralCounterparty,
			},
			SignatureIndicators: []string{"missed coupon", "failure to pay", "credit default swap"},
			HistoricalExemplars: []string{"Evergrande missed bond payments (2021)", "Detroit municipal bankruptcy (2013)"},
		},
		{
			Name:             model.ScenarioSystemicShock,
			Definition:       "A sudden, severe external shock that propagates across multiple financial markets and institutions.",
			TheoreticalBasis: "Contagion through common exposures and interconnected balance sheets.",
			StandardStages:   []string{"Shock", "Contagion", "Policy Response", "Recovery"},
			KeyEpisodeTypes: []model.EpisodeType{
				model.EpisodePriceLimitHit,
				model.EpisodeEmergencyLending,
				model.EpisodeCrossMarginCascade,
			},
			KeyRoles: []model.ParticipantRole{
				model.RoleCentralBank,
				model.RoleFinancialRegulator,
				model.RoleInstitutionalInvestor,
			},
			SignatureIndicators: []string{"contagion", "circuit breaker", "emergency facility"},
			HistoricalExemplars: []string{"Lehman Brothers bankruptcy (2008)", "Pandemic market crash (2020)"},
		},
		{
			Name:             model.ScenarioAccountingFraud,
			Definition:       "Intentional misrepresentation of financial health through fictitious revenues, hidden liabilities, or forged documentation.",
			TheoreticalBasis: "Agency conflicts combined with audit and disclosure failures.",
			StandardStages:   []string{"Fabrication", "Concealment", "Exposure", "Collapse", "Prosecution"},
			KeyEpisodeTypes: []model.EpisodeType{
				model.EpisodeFictitiousRevenue,
				model.EpisodeFakeCashBalance,
				model.EpisodeAuditorResignation,
				model.EpisodeShortSellerReport,
				model.EpisodeEnforcementAction,
			},
			KeyRoles: []model.ParticipantRole{
				model.RoleIssuer,
				model.RoleExternalAuditor,
				model.RoleResearchFirm,
				model.RoleSecuritiesEnforcement,
			},
			SignatureIndicators: []string{"restatement", "missing cash", "fictitious revenue", "forged documents"},
			HistoricalExemplars: []string{"Enron off-balance-sheet entities (2001)", "Wirecard fake cash balances (2020)"},
		},
		{
			Name:             model.ScenarioLeverageCycleCollapse,
			Definition:       "The implosion of a highly leveraged entity or sector when funding conditions reverse.",
			TheoreticalBasis: "Geanakoplos leverage cycle; funding fragility under stress.",
			StandardStages:   []string{"Leverage Build-Up", "Funding Reversal", "Unwind", "Aftermath"},
			KeyEpisodeTypes: []model.EpisodeType{
				model.EpisodeMarginCallIssuance,
				model.EpisodePrimeBrokerUnwind,
				model.EpisodeForcedAssetLiquidation,
			},
			KeyRoles: []model.ParticipantRole{
				model.RoleHedgeFund,
				model.RolePrimeBroker,
				model.RoleCustodianBank,
			},
			SignatureIndicators: []string{"total return swaps", "concentrated positions", "block sales"},
			HistoricalExemplars: []string{"Archegos Capital blowup (2021)", "Long-Term Capital Management (1998)"},
		},
		{
			Name:             model.ScenarioStablecoinDepeg,
			Definition:       "Loss of parity between a stablecoin and its reference asset, triggering redemption pressure.",
			TheoreticalBasis: "Run dynamics on redeemable claims with uncertain reserve backing.",
			StandardStages:   []string{"Peg Stress", "Depeg", "Redemption Rush", "Resolution"},
			KeyEpisodeTypes: []model.EpisodeType{
				model.EpisodeStablecoinRedemptionFocus,
				model.EpisodeLargeScaleRedemption,
				model.EpisodeRetailPanicSelling,
			},
			KeyRoles: []model.ParticipantRole{
				model.RolePlatformOperator,
				model.RoleRetailInvestor,
				model.RoleLiquidityProvider,
			},
			SignatureIndicators: []string{"depeg", "reserve backing", "redemption suspension"},
			HistoricalExemplars: []string{"TerraUSD collapse (2022)", "USDC depeg during SVB crisis (2023)"},
		},
		{
			Name:           model.ScenarioOther,
			Definition:     "Financial event that matches no catalogued archetype.",
			StandardStages: []string{"Unclassified"},
		},
	}
}
