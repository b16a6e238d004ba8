package calc

import (
	"fmt"
	"strings"
)

// BuildingType is the closed set of building types the calculators know.
// TypeDefault covers blank and unrecognised values.
type BuildingType uint8

const (
	TypeDefault BuildingType = iota
	TypeOffice
	TypeMedicalOffice
	TypeMixedUse
	TypeStripMall
	TypeRetailStore
	TypeSupermarket
	TypeWholesaleClub
	TypeEnclosedMall
	TypeOutletMall
	TypeHotel
	TypeRestaurant
	TypeGym
	TypeEventSpace
	TypeVenue
	TypeTheater
	TypeArtsCulture
	TypeLibraryMuseum
	TypeBankBranch
	TypeVehicleDealership
	TypeSportsGaming
	TypeK12School
	TypeHigherEd
	TypePreschool
	TypeOutpatientClinic
	TypeInpatientHospital
	TypeSpecialtyHospital
	TypeResidentialCare
	TypeLaboratory
	TypeCourthouse
	TypePublicService
	TypePoliceStation
	TypeFireStation
	TypePublicTransit
	TypeGovernment
	TypeDataCenter
	TypeWarehouse
	TypeMultifamily
	typeCount
)

// Vertical is the market segment a building type rolls up to.
type Vertical string

const (
	VerticalCommercial  Vertical = "Commercial"
	VerticalEducation   Vertical = "Education"
	VerticalHealthcare  Vertical = "Healthcare"
	VerticalGovernment  Vertical = "Government"
	VerticalIndustrial  Vertical = "Industrial"
	VerticalResidential Vertical = "Residential"
	VerticalOther       Vertical = "Other"
)

// OpportunityVariant selects the opportunity-score formula.
type OpportunityVariant uint8

const (
	// OpportunityUtilization is 1 - utilization (single tenant, owner occupied).
	OpportunityUtilization OpportunityVariant = iota
	// OpportunityVacancy adds vacancy for buildings leased floor by floor.
	OpportunityVacancy
	// OpportunityDampened scales 1 - utilization down for types with
	// ventilation code floors.
	OpportunityDampened
	// OpportunityNone fixes the score at zero for occupancy independent loads.
	OpportunityNone
)

// GasMode selects the gas share branch.
type GasMode uint8

const (
	GasStandard GasMode = iota
	GasHotel
	GasRestaurant
)

// GammaParams describe the EUI ratio distribution behind ENERGY STAR scores.
type GammaParams struct {
	Shape float64
	Scale float64
}

// TypeProfile is everything the calculators need to know about a building
// type. Adding a type is a new row in profiles.
type TypeProfile struct {
	Name     string
	Vertical Vertical

	SavingsFloor   float64
	SavingsCeiling float64
	Opportunity    OpportunityVariant

	// EquipmentDriven types skip every adjustment and take fixed fuel shares.
	EquipmentDriven bool
	ElecBase        float64
	Gas             GasMode
	SteamBase       float64
	OilShare        float64

	Commercial bool
	EnergyStar GammaParams
	// DCScoreTarget is the DC BEPS ENERGY STAR target; zero means no target.
	DCScoreTarget float64
	// DenverEUITarget is the Energize Denver 2032 site EUI target.
	DenverEUITarget float64
}

var defaultGamma = GammaParams{Shape: 2.0, Scale: 0.43}

var profiles = [typeCount]TypeProfile{
	TypeDefault: {Name: "DEFAULT", Vertical: VerticalOther, SavingsFloor: 0.15, SavingsCeiling: 0.35,
		ElecBase: 0.40, SteamBase: 0.90, OilShare: 0.75, EnergyStar: defaultGamma, DenverEUITarget: 55.0},

	TypeOffice: {Name: "Office", Vertical: VerticalCommercial, SavingsFloor: 0.20, SavingsCeiling: 0.40, Opportunity: OpportunityVacancy,
		ElecBase: 0.42, SteamBase: 0.90, OilShare: 0.789, Commercial: true, EnergyStar: GammaParams{2.0, 0.42}, DCScoreTarget: 71, DenverEUITarget: 48.3},
	TypeMedicalOffice: {Name: "Medical Office", Vertical: VerticalHealthcare, SavingsFloor: 0.20, SavingsCeiling: 0.40, Opportunity: OpportunityVacancy,
		ElecBase: 0.44, SteamBase: 0.90, OilShare: 0.612, Commercial: true, EnergyStar: GammaParams{2.1, 0.40}, DenverEUITarget: 58.0},
	TypeMixedUse: {Name: "Mixed Use", Vertical: VerticalCommercial, SavingsFloor: 0.18, SavingsCeiling: 0.38, Opportunity: OpportunityVacancy,
		ElecBase: 0.38, SteamBase: 0.90, OilShare: 0.091, Commercial: true, EnergyStar: defaultGamma, DenverEUITarget: 52.0},
	TypeStripMall: {Name: "Strip Mall", Vertical: VerticalCommercial, SavingsFloor: 0.15, SavingsCeiling: 0.35, Opportunity: OpportunityVacancy,
		ElecBase: 0.40, SteamBase: 0.90, OilShare: 0.85, Commercial: true, EnergyStar: defaultGamma, DenverEUITarget: 52.0},
	TypeRetailStore: {Name: "Retail Store", Vertical: VerticalCommercial, SavingsFloor: 0.15, SavingsCeiling: 0.35,
		ElecBase: 0.40, SteamBase: 0.90, OilShare: 0.974, Commercial: true, EnergyStar: GammaParams{1.9, 0.45}, DenverEUITarget: 52.0},
	TypeSupermarket: {Name: "Supermarket/Grocery", Vertical: VerticalCommercial, SavingsFloor: 0.10, SavingsCeiling: 0.25,
		ElecBase: 0.30, SteamBase: 0.90, OilShare: 0.552, Commercial: true, EnergyStar: GammaParams{1.8, 0.50}, DenverEUITarget: 150.0},
	TypeWholesaleClub: {Name: "Wholesale Club", Vertical: VerticalCommercial, SavingsFloor: 0.10, SavingsCeiling: 0.25,
		ElecBase: 0.32, SteamBase: 0.90, OilShare: 0.974, Commercial: true, EnergyStar: defaultGamma, DenverEUITarget: 60.0},
	TypeEnclosedMall: {Name: "Enclosed Mall", Vertical: VerticalCommercial, SavingsFloor: 0.12, SavingsCeiling: 0.30,
		ElecBase: 0.45, SteamBase: 0.90, OilShare: 0.85, Commercial: true, EnergyStar: defaultGamma, DenverEUITarget: 60.0},
	TypeOutletMall: {Name: "Outlet Mall", Vertical: VerticalCommercial, SavingsFloor: 0.15, SavingsCeiling: 0.35,
		ElecBase: 0.42, SteamBase: 0.90, OilShare: 0.85, Commercial: true, EnergyStar: defaultGamma, DenverEUITarget: 55.0},
	TypeHotel: {Name: "Hotel", Vertical: VerticalCommercial, SavingsFloor: 0.15, SavingsCeiling: 0.35,
		ElecBase: 0.38, Gas: GasHotel, SteamBase: 0.53, OilShare: 0.696, Commercial: true, EnergyStar: GammaParams{1.8, 0.48}, DCScoreTarget: 54, DenverEUITarget: 61.1},
	TypeRestaurant: {Name: "Restaurant/Bar", Vertical: VerticalCommercial, SavingsFloor: 0.10, SavingsCeiling: 0.25,
		ElecBase: 0.28, Gas: GasRestaurant, SteamBase: 0.90, OilShare: 0.626, Commercial: true, EnergyStar: defaultGamma, DenverEUITarget: 180.0},
	TypeGym: {Name: "Gym", Vertical: VerticalCommercial, SavingsFloor: 0.15, SavingsCeiling: 0.35,
		ElecBase: 0.40, SteamBase: 0.90, OilShare: 0.847, Commercial: true, EnergyStar: defaultGamma, DenverEUITarget: 60.0},
	TypeEventSpace: {Name: "Event Space", Vertical: VerticalCommercial, SavingsFloor: 0.20, SavingsCeiling: 0.45,
		ElecBase: 0.42, SteamBase: 0.90, OilShare: 0.847, EnergyStar: defaultGamma, DenverEUITarget: 55.0},
	TypeVenue: {Name: "Venue", Vertical: VerticalCommercial, SavingsFloor: 0.20, SavingsCeiling: 0.45,
		ElecBase: 0.42, SteamBase: 0.90, OilShare: 0.847, Commercial: true, EnergyStar: defaultGamma, DenverEUITarget: 55.0},
	TypeTheater: {Name: "Theater", Vertical: VerticalCommercial, SavingsFloor: 0.18, SavingsCeiling: 0.40,
		ElecBase: 0.42, SteamBase: 0.90, OilShare: 0.847, Commercial: true, EnergyStar: defaultGamma, DenverEUITarget: 55.0},
	TypeArtsCulture: {Name: "Arts & Culture", Vertical: VerticalCommercial, SavingsFloor: 0.15, SavingsCeiling: 0.35,
		ElecBase: 0.42, SteamBase: 0.90, OilShare: 0.847, EnergyStar: defaultGamma, DenverEUITarget: 55.0},
	TypeLibraryMuseum: {Name: "Library/Museum", Vertical: VerticalGovernment, SavingsFloor: 0.12, SavingsCeiling: 0.28,
		ElecBase: 0.45, SteamBase: 0.90, OilShare: 0.847, EnergyStar: defaultGamma, DenverEUITarget: 55.0},
	TypeBankBranch: {Name: "Bank Branch", Vertical: VerticalCommercial, SavingsFloor: 0.12, SavingsCeiling: 0.28,
		ElecBase: 0.42, SteamBase: 0.90, OilShare: 0.789, Commercial: true, EnergyStar: GammaParams{2.0, 0.42}, DenverEUITarget: 48.3},
	TypeVehicleDealership: {Name: "Vehicle Dealership", Vertical: VerticalCommercial, SavingsFloor: 0.15, SavingsCeiling: 0.35,
		ElecBase: 0.38, SteamBase: 0.90, OilShare: 0.963, Commercial: true, EnergyStar: defaultGamma, DenverEUITarget: 55.0},
	TypeSportsGaming: {Name: "Sports/Gaming Center", Vertical: VerticalCommercial, SavingsFloor: 0.18, SavingsCeiling: 0.40,
		ElecBase: 0.42, SteamBase: 0.90, OilShare: 0.847, Commercial: true, EnergyStar: defaultGamma, DenverEUITarget: 60.0},
	TypeK12School: {Name: "K-12 School", Vertical: VerticalEducation, SavingsFloor: 0.20, SavingsCeiling: 0.45,
		ElecBase: 0.45, SteamBase: 0.90, OilShare: 0.896, EnergyStar: GammaParams{2.2, 0.38}, DenverEUITarget: 45.0},
	TypeHigherEd: {Name: "Higher Ed", Vertical: VerticalEducation, SavingsFloor: 0.20, SavingsCeiling: 0.45,
		ElecBase: 0.42, SteamBase: 0.90, OilShare: 0.896, EnergyStar: GammaParams{2.0, 0.45}, DenverEUITarget: 70.0},
	TypePreschool: {Name: "Preschool/Daycare", Vertical: VerticalEducation, SavingsFloor: 0.18, SavingsCeiling: 0.38,
		ElecBase: 0.42, SteamBase: 0.90, OilShare: 0.896, EnergyStar: defaultGamma, DenverEUITarget: 50.0},
	TypeOutpatientClinic: {Name: "Outpatient Clinic", Vertical: VerticalHealthcare, SavingsFloor: 0.15, SavingsCeiling: 0.32,
		ElecBase: 0.44, SteamBase: 0.90, OilShare: 0.612, EnergyStar: GammaParams{2.1, 0.40}, DenverEUITarget: 65.0},
	TypeInpatientHospital: {Name: "Inpatient Hospital", Vertical: VerticalHealthcare, SavingsFloor: 0.05, SavingsCeiling: 0.15, Opportunity: OpportunityDampened,
		ElecBase: 0.40, SteamBase: 0.85, OilShare: 0.537, EnergyStar: GammaParams{2.3, 0.38}, DCScoreTarget: 50, DenverEUITarget: 171.0},
	TypeSpecialtyHospital: {Name: "Specialty Hospital", Vertical: VerticalHealthcare, SavingsFloor: 0.05, SavingsCeiling: 0.15, Opportunity: OpportunityDampened,
		ElecBase: 0.40, SteamBase: 0.85, OilShare: 0.537, EnergyStar: GammaParams{2.3, 0.38}, DCScoreTarget: 50, DenverEUITarget: 171.0},
	TypeResidentialCare: {Name: "Residential Care Facility", Vertical: VerticalHealthcare, SavingsFloor: 0.05, SavingsCeiling: 0.15, Opportunity: OpportunityDampened,
		ElecBase: 0.36, SteamBase: 0.90, OilShare: 0.419, EnergyStar: defaultGamma, DenverEUITarget: 90.0},
	TypeLaboratory: {Name: "Laboratory", Vertical: VerticalHealthcare, SavingsFloor: 0.05, SavingsCeiling: 0.15, Opportunity: OpportunityDampened,
		ElecBase: 0.48, SteamBase: 0.90, OilShare: 0.125, EnergyStar: defaultGamma, DenverEUITarget: 200.0},
	TypeCourthouse: {Name: "Courthouse", Vertical: VerticalGovernment, SavingsFloor: 0.10, SavingsCeiling: 0.25,
		ElecBase: 0.42, SteamBase: 0.90, OilShare: 0.674, EnergyStar: GammaParams{2.0, 0.45}, DenverEUITarget: 55.0},
	TypePublicService: {Name: "Public Service", Vertical: VerticalGovernment, SavingsFloor: 0.10, SavingsCeiling: 0.25,
		ElecBase: 0.40, SteamBase: 0.90, OilShare: 0.963, EnergyStar: defaultGamma, DenverEUITarget: 55.0},
	TypePoliceStation: {Name: "Police Station", Vertical: VerticalGovernment, SavingsFloor: 0.05, SavingsCeiling: 0.15, Opportunity: OpportunityDampened,
		ElecBase: 0.40, SteamBase: 0.90, OilShare: 0.674, EnergyStar: defaultGamma, DenverEUITarget: 70.0},
	TypeFireStation: {Name: "Fire Station", Vertical: VerticalGovernment, SavingsFloor: 0.05, SavingsCeiling: 0.15, Opportunity: OpportunityDampened,
		ElecBase: 0.38, SteamBase: 0.90, OilShare: 0.674, EnergyStar: defaultGamma, DenverEUITarget: 70.0},
	TypePublicTransit: {Name: "Public Transit", Vertical: VerticalGovernment, SavingsFloor: 0.05, SavingsCeiling: 0.15, Opportunity: OpportunityDampened,
		ElecBase: 0.40, SteamBase: 0.90, OilShare: 0.963, EnergyStar: defaultGamma, DenverEUITarget: 60.0},
	TypeGovernment: {Name: "Government", Vertical: VerticalGovernment, SavingsFloor: 0.15, SavingsCeiling: 0.35,
		ElecBase: 0.42, SteamBase: 0.90, OilShare: 0.75, EnergyStar: defaultGamma, DenverEUITarget: 55.0},
	TypeDataCenter: {Name: "Data Center", Vertical: VerticalCommercial, Opportunity: OpportunityNone, EquipmentDriven: true,
		ElecBase: 0.42, SteamBase: 0.90, OilShare: 0.75, EnergyStar: GammaParams{1.5, 0.55}, DenverEUITarget: 400.0},
	TypeWarehouse: {Name: "Warehouse", Vertical: VerticalIndustrial, SavingsFloor: 0.15, SavingsCeiling: 0.35,
		ElecBase: 0.35, SteamBase: 0.90, OilShare: 0.75, EnergyStar: GammaParams{1.7, 0.52}, DenverEUITarget: 25.0},
	TypeMultifamily: {Name: "Multifamily", Vertical: VerticalResidential, SavingsFloor: 0.15, SavingsCeiling: 0.35,
		ElecBase: 0.35, SteamBase: 0.90, OilShare: 0.75, EnergyStar: defaultGamma, DCScoreTarget: 66, DenverEUITarget: 45.0},
}

var typeAliases = map[string]BuildingType{
	"library":          TypeLibraryMuseum,
	"residential care": TypeResidentialCare,
	"hospital":         TypeInpatientHospital,
	"school":           TypeK12School,
}

var typeByName = func() map[string]BuildingType {
	m := make(map[string]BuildingType, int(typeCount)+len(typeAliases))
	for t := TypeDefault + 1; t < typeCount; t++ {
		m[strings.ToLower(profiles[t].Name)] = t
	}
	for k, v := range typeAliases {
		m[k] = v
	}
	return m
}()

// ParseBuildingType maps a bldg_type cell to its type. ok is false for blank
// or unrecognised values, which resolve to TypeDefault.
func ParseBuildingType(s string) (BuildingType, bool) {
	t, ok := typeByName[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return TypeDefault, false
	}
	return t, true
}

// LookupBuildingType is ParseBuildingType for configuration keys, where an
// unknown name is an error rather than a fallback.
func LookupBuildingType(s string) (BuildingType, error) {
	if strings.EqualFold(strings.TrimSpace(s), profiles[TypeDefault].Name) {
		return TypeDefault, nil
	}
	t, ok := ParseBuildingType(s)
	if !ok {
		return TypeDefault, fmt.Errorf("unknown building type %q", s)
	}
	return t, nil
}

// Profile returns the parameter set for t.
func (t BuildingType) Profile() TypeProfile {
	if t >= typeCount {
		return profiles[TypeDefault]
	}
	return profiles[t]
}

func (t BuildingType) String() string { return t.Profile().Name }
