package calc

import (
	"fmt"
	"strings"
)

// City is the closed set of jurisdictions with their own grid factor or
// performance standard. CityDefault covers everything else.
type City uint8

const (
	CityDefault City = iota
	CityNewYork
	CityBoston
	CityCambridge
	CityWashington
	CityDenver
	CitySeattle
	CitySanFrancisco
	CityLosAngeles
	CityBerkeley
	CityStLouis
	CityChicago
	CityPortland
	CityAtlanta
	cityCount
)

// Combustion fuel factors in tCO2e per kBtu.
const (
	gasFactor   = 0.00005311
	steamFactor = 0.00004493
	oilFactor   = 0.00007315
)

// EmissionFactors are tCO2e per kBtu for each fuel.
type EmissionFactors struct {
	Electricity float64
	Gas         float64
	Steam       float64
	FuelOil     float64
}

// CityProfile holds the per-city reference data.
type CityProfile struct {
	Name    string
	Factors EmissionFactors
	Law     *Law
}

func combustion(elec float64) EmissionFactors {
	return EmissionFactors{Electricity: elec, Gas: gasFactor, Steam: steamFactor, FuelOil: oilFactor}
}

var cities = [cityCount]CityProfile{
	CityDefault:      {Name: "DEFAULT", Factors: combustion(0.0000922)},
	CityNewYork:      {Name: "New York", Factors: combustion(0.0000847), Law: &lawNYC},
	CityBoston:       {Name: "Boston", Factors: combustion(0.0000717), Law: &lawBoston},
	CityCambridge:    {Name: "Cambridge", Factors: combustion(0.0000717), Law: &lawCambridge},
	CityWashington:   {Name: "Washington", Factors: combustion(0.0000794), Law: &lawDC},
	CityDenver:       {Name: "Denver", Factors: combustion(0.0001378), Law: &lawDenver},
	CitySeattle:      {Name: "Seattle", Factors: EmissionFactors{Electricity: 0.0000029, Gas: 0.000053, Steam: 0.000081, FuelOil: oilFactor}, Law: &lawSeattle},
	CitySanFrancisco: {Name: "San Francisco", Factors: combustion(0.0000570)},
	CityLosAngeles:   {Name: "Los Angeles", Factors: combustion(0.0000570)},
	CityBerkeley:     {Name: "Berkeley", Factors: combustion(0.0000570)},
	CityStLouis:      {Name: "St. Louis", Factors: combustion(0.0001649), Law: &lawStLouis},
	CityChicago:      {Name: "Chicago", Factors: combustion(0.0001649)},
	CityPortland:     {Name: "Portland", Factors: combustion(0.0000595)},
	CityAtlanta:      {Name: "Atlanta", Factors: combustion(0.0000988)},
}

var cityAliases = map[string]City{
	"nyc":             CityNewYork,
	"new york city":   CityNewYork,
	"manhattan":       CityNewYork,
	"brooklyn":        CityNewYork,
	"washington dc":   CityWashington,
	"washington, dc":  CityWashington,
	"washington d.c.": CityWashington,
	"dc":              CityWashington,
	"saint louis":     CityStLouis,
	"st louis":        CityStLouis,
	"sf":              CitySanFrancisco,
	"la":              CityLosAngeles,
}

var cityByName = func() map[string]City {
	m := make(map[string]City, int(cityCount)+len(cityAliases))
	for c := CityDefault + 1; c < cityCount; c++ {
		m[strings.ToLower(cities[c].Name)] = c
	}
	for k, v := range cityAliases {
		m[k] = v
	}
	return m
}()

// ParseCity maps a loc_city cell to its city; unknown values resolve to
// CityDefault with ok false.
func ParseCity(s string) (City, bool) {
	c, ok := cityByName[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return CityDefault, false
	}
	return c, true
}

// LookupCity resolves a configuration key. DEFAULT is accepted; anything
// else unknown is an error.
func LookupCity(s string) (City, error) {
	if strings.EqualFold(strings.TrimSpace(s), cities[CityDefault].Name) {
		return CityDefault, nil
	}
	c, ok := ParseCity(s)
	if !ok {
		return CityDefault, fmt.Errorf("unknown city %q", s)
	}
	return c, nil
}

// Profile returns the reference data for c.
func (c City) Profile() CityProfile {
	if c >= cityCount {
		return cities[CityDefault]
	}
	return cities[c]
}

func (c City) String() string { return c.Profile().Name }

// ClimateZone is the ENERGY STAR climate grouping.
type ClimateZone uint8

const (
	ClimateUnknown ClimateZone = iota
	ClimateNorthern
	ClimateNorthCentral
	ClimateSouthCentral
	ClimateSouthern
)

var climateNames = map[string]ClimateZone{
	"northern":      ClimateNorthern,
	"north-central": ClimateNorthCentral,
	"north central": ClimateNorthCentral,
	"south-central": ClimateSouthCentral,
	"south central": ClimateSouthCentral,
	"southern":      ClimateSouthern,
}

// ParseClimateZone maps an energy_climate_zone cell to its zone.
func ParseClimateZone(s string) ClimateZone {
	return climateNames[strings.ToLower(strings.TrimSpace(s))]
}

func (z ClimateZone) String() string {
	switch z {
	case ClimateNorthern:
		return "Northern"
	case ClimateNorthCentral:
		return "North-Central"
	case ClimateSouthCentral:
		return "South-Central"
	case ClimateSouthern:
		return "Southern"
	default:
		return "Unknown"
	}
}

// climateParams are the per-zone constants shared by several stages.
type climateParams struct {
	elecOffset        float64 // added to the type's electric base share
	savingsMultiplier float64
}

var climates = map[ClimateZone]climateParams{
	ClimateUnknown:      {elecOffset: 0, savingsMultiplier: 1.0},
	ClimateNorthern:     {elecOffset: -0.03, savingsMultiplier: 1.10},
	ClimateNorthCentral: {elecOffset: 0, savingsMultiplier: 1.05},
	ClimateSouthCentral: {elecOffset: 0.03, savingsMultiplier: 1.00},
	ClimateSouthern:     {elecOffset: 0.05, savingsMultiplier: 0.95},
}
