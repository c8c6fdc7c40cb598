package catalog

// Section type keys. The order below is the order sections appear in the
// assessment form.
const (
	SectionBuildingInformation = "building-information"
	SectionSiteAndTransport    = "site-and-transport"
	SectionWaterEfficiency     = "water-efficiency"
	SectionEnergyEfficiency    = "energy-efficiency"
	SectionIndoorQuality       = "indoor-environmental-quality"
	SectionMaterials           = "materials-and-resources"
	SectionWasteAndPollution   = "waste-and-pollution"
	SectionInnovation          = "innovation"
)

// Sections is the fixed, ordered GREDA-GBC section catalog. Scored section
// maxima sum to MaxOverallScore (130).
var Sections = []Section{
	{
		Type:   SectionBuildingInformation,
		Name:   "Building Information",
		Scored: false,
	},
	{
		Type:   SectionSiteAndTransport,
		Name:   "Site and Transport",
		Scored: true,
		Variables: []Variable{
			{ID: "site-selection", Name: "Responsible Site Selection", MaxScore: 4},
			{ID: "proximity-to-public-transport", Name: "Proximity to Public Transport", MaxScore: 4, RequiresLocation: true},
			{ID: "pedestrian-friendly-access", Name: "Pedestrian-Friendly Access", MaxScore: 3, RequiresImages: true},
			{ID: "cycling-facilities", Name: "Cycling Facilities", MaxScore: 2, RequiresImages: true},
			{ID: "heat-island-reduction", Name: "Heat Island Reduction", MaxScore: 4, RequiresImages: true},
			{ID: "landscaping-and-greenery", Name: "Landscaping and Greenery", MaxScore: 3, RequiresImages: true},
		},
	},
	{
		Type:   SectionWaterEfficiency,
		Name:   "Water Efficiency",
		Scored: true,
		Variables: []Variable{
			{ID: "rainwater-harvesting", Name: "Rainwater Harvesting", MaxScore: 5, RequiresImages: true},
			{ID: "water-efficient-fixtures", Name: "Water-Efficient Fixtures", MaxScore: 4, RequiresImages: true},
			{ID: "greywater-recycling", Name: "Greywater Recycling", MaxScore: 4},
			{ID: "water-metering", Name: "Water Metering", MaxScore: 2, RequiresImages: true},
		},
	},
	{
		Type:   SectionEnergyEfficiency,
		Name:   "Energy Efficiency and Carbon Management",
		Scored: true,
		Variables: []Variable{
			{ID: "solar-panels", Name: "Solar Panel Installation", MaxScore: 8, RequiresImages: true, RequiresLocation: true},
			{ID: "energy-efficient-lighting", Name: "Energy-Efficient Lighting", MaxScore: 5, RequiresImages: true},
			{ID: "natural-ventilation", Name: "Natural Ventilation Design", MaxScore: 5, RequiresVideos: true},
			{ID: "hvac-efficiency", Name: "HVAC System Efficiency", MaxScore: 6, RequiresImages: true},
			{ID: "building-envelope-insulation", Name: "Building Envelope Insulation", MaxScore: 5, RequiresImages: true},
			{ID: "energy-metering", Name: "Energy Metering and Monitoring", MaxScore: 3, RequiresImages: true},
			{ID: "renewable-energy-storage", Name: "Renewable Energy Storage", MaxScore: 2},
		},
	},
	{
		Type:   SectionIndoorQuality,
		Name:   "Indoor Environmental Quality",
		Scored: true,
		Variables: []Variable{
			{ID: "daylighting", Name: "Daylighting", MaxScore: 5, RequiresImages: true},
			{ID: "indoor-air-quality", Name: "Indoor Air Quality", MaxScore: 5},
			{ID: "acoustic-comfort", Name: "Acoustic Comfort", MaxScore: 4, RequiresAudio: true},
			{ID: "thermal-comfort", Name: "Thermal Comfort", MaxScore: 4},
			{ID: "low-emission-finishes", Name: "Low-Emission Finishes", MaxScore: 2, RequiresImages: true},
		},
	},
	{
		Type:   SectionMaterials,
		Name:   "Materials and Resources",
		Scored: true,
		Variables: []Variable{
			{ID: "locally-sourced-materials", Name: "Locally Sourced Materials", MaxScore: 5, RequiresLocation: true},
			{ID: "recycled-content-materials", Name: "Recycled-Content Materials", MaxScore: 4, RequiresImages: true},
			{ID: "sustainable-timber", Name: "Sustainably Sourced Timber", MaxScore: 4},
			{ID: "material-reuse", Name: "Material Reuse", MaxScore: 3, RequiresImages: true},
		},
	},
	{
		Type:   SectionWasteAndPollution,
		Name:   "Waste and Pollution",
		Scored: true,
		Variables: []Variable{
			{ID: "construction-waste-management", Name: "Construction Waste Management", MaxScore: 5, RequiresImages: true},
			{ID: "operational-recycling", Name: "Operational Recycling Facilities", MaxScore: 4, RequiresImages: true},
			{ID: "wastewater-treatment", Name: "Wastewater Treatment", MaxScore: 4},
			{ID: "air-pollution-control", Name: "Air Pollution Control", MaxScore: 2},
		},
	},
	{
		Type:   SectionInnovation,
		Name:   "Innovation",
		Scored: true,
		Variables: []Variable{
			{ID: "innovative-technologies", Name: "Innovative Green Technologies", MaxScore: 5, RequiresImages: true, RequiresVideos: true},
			{ID: "performance-monitoring", Name: "Building Performance Monitoring", MaxScore: 3},
			{ID: "green-education-programs", Name: "Green Education Programs", MaxScore: 2},
		},
	},
}
