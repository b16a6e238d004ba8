// Package calc holds the building calculators: fuel shares, savings,
// costs, emissions, regulatory fines, ENERGY STAR estimates and valuation,
// together with the per-type and per-city reference tables that drive them.
package calc

// Input columns. These are owned by data entry and never written here.
const (
	ColBuildingID   = "id_building"
	ColBuildingType = "bldg_type"
	ColSqft         = "bldg_sqft"
	ColYearBuilt    = "bldg_year_built"
	ColCity         = "loc_city"
	ColClimateZone  = "energy_climate_zone"
	ColEnergyStar   = "energy_star_score"
	ColSiteEUI      = "energy_site_eui"
	ColElecKWh      = "energy_elec_kwh"
	ColElecKBtu     = "energy_elec_kbtu"
	ColGasKBtu      = "energy_gas_kbtu"
	ColSteamKBtu    = "energy_steam_kbtu"
	ColFuelOilKBtu  = "energy_fuel_oil_kbtu"
	ColVacancy      = "occ_vacancy_rate"
	ColUtilization  = "occ_utilization_rate"
	ColRateKWh      = "cost_elec_rate_kwh"
	ColRateDemand   = "cost_elec_rate_demand_kw"
	ColLoadFactor   = "cost_elec_load_factor"
	ColRateTherm    = "cost_gas_rate_therm"
	ColRateSteamMlb = "cost_steam_rate_mlb"
	ColRateOilMMBtu = "cost_fuel_oil_rate_mmbtu"
	ColCapRate      = "val_cap_rate_pct"
)

// Derived columns, grouped by the stage that owns them.
const (
	ColVertical = "bldg_vertical"

	ColHVACPctElec    = "hvac_pct_elec"
	ColHVACPctGas     = "hvac_pct_gas"
	ColHVACPctSteam   = "hvac_pct_steam"
	ColHVACPctFuelOil = "hvac_pct_fuel_oil"

	ColPeakKW         = "cost_elec_peak_kw"
	ColCostElecEnergy = "cost_elec_energy_annual"
	ColCostElecDemand = "cost_elec_demand_annual"
	ColCostElecTotal  = "cost_elec_total_annual"
	ColCostGas        = "cost_gas_annual"
	ColCostSteam      = "cost_steam_annual"
	ColCostFuelOil    = "cost_fuel_oil_annual"

	ColSavingsPct = "odcv_hvac_savings_pct"

	ColElecKWhPost   = "energy_elec_kwh_post_odcv"
	ColElecKBtuPost  = "energy_elec_kbtu_post_odcv"
	ColGasKBtuPost   = "energy_gas_kbtu_post_odcv"
	ColSteamKBtuPost = "energy_steam_kbtu_post_odcv"
	ColOilKBtuPost   = "energy_fuel_oil_kbtu_post_odcv"
	ColTotalKBtuPost = "energy_total_kbtu_post_odcv"

	ColCostElecEnergyPost = "cost_elec_energy_annual_post_odcv"
	ColCostElecDemandPost = "cost_elec_demand_annual_post_odcv"
	ColCostElecTotalPost  = "cost_elec_total_annual_post_odcv"
	ColCostGasPost        = "cost_gas_annual_post_odcv"
	ColCostSteamPost      = "cost_steam_annual_post_odcv"
	ColCostFuelOilPost    = "cost_fuel_oil_annual_post_odcv"

	ColHVACEnergyTotal = "hvac_energy_total_kbtu"
	ColHVACCostTotal   = "hvac_cost_total_annual"

	ColCarbonBaseline  = "carbon_emissions_total_mt"
	ColCarbonPost      = "carbon_emissions_post_odcv_mt"
	ColCarbonReduction = "odcv_carbon_reduction_yr1_mt"

	ColEnergyStarPost = "energy_star_score_post_odcv"

	ColFineBaseline = "bps_fine_baseline_yr1_usd"
	ColFinePost     = "bps_fine_post_odcv_yr1_usd"
	ColFineAvoided  = "bps_fine_avoided_yr1_usd"

	ColSavingsUSD  = "odcv_hvac_savings_annual_usd"
	ColOpexAvoided = "savings_opex_avoided_annual_usd"
	ColValCurrent  = "val_current_usd"
	ColValPost     = "val_post_odcv_usd"
	ColValImpact   = "val_odcv_impact_usd"
)

// InputColumns lists every column the calculators read that no stage writes.
var InputColumns = []string{
	ColBuildingID, ColBuildingType, ColSqft, ColYearBuilt, ColCity, ColClimateZone,
	ColEnergyStar, ColSiteEUI, ColElecKWh, ColElecKBtu, ColGasKBtu, ColSteamKBtu,
	ColFuelOilKBtu, ColVacancy, ColUtilization, ColRateKWh, ColRateDemand, ColLoadFactor,
	ColRateTherm, ColRateSteamMlb, ColRateOilMMBtu, ColCapRate,
}
