package dataset

// Column names as they appear in the incident spreadsheet.
const (
	ColDate            = "Date"
	ColCountry         = "Country"
	ColCountryISO      = "Country ISO"
	ColAdmin1          = "Admin 1"
	ColLatitude        = "Latitude"
	ColLongitude       = "Longitude"
	ColGeoPrecision    = "Geo Precision"
	ColLocation        = "Location of event"
	ColPerpetrator     = "Reported Perpetrator"
	ColPerpetratorName = "Reported Perpetrator Name"
	ColWeapon          = "Weapon Carried/Used"
	ColFacility        = "Type of education facility"

	ColAttacksSchools          = "Attacks on Schools"
	ColAttacksUniversities     = "Attacks on Universities"
	ColMilitaryOccupation      = "Military Occupation of Education facility"
	ColArson                   = "Arson attack on education facility"
	ColForcedEntry             = "Forced Entry into education facility"
	ColDamage                  = "Damage/Destruction To Ed facility Event"
	ColAttacksStudentsTeachers = "Attacks on Students and Teachers"

	ColEducatorsKilled    = "Educators Killed"
	ColEducatorsInjured   = "Educators Injured"
	ColEducatorsKidnapped = "Educators Kidnapped"
	ColEducatorsArrested  = "Educators Arrested"
	ColStudentsAttacked   = "Students Attacked in School"
	ColStudentsKilled     = "Students Killed"
	ColStudentsInjured    = "Students Injured"
	ColStudentsKidnapped  = "Students Kidnapped"
	ColStudentsArrested   = "Students Arrested"
	ColSexualViolence     = "Sexual Violence Affecting School Age Children"

	ColEventDescription = "Event Description"
	ColEducatorsOutcome = "Known Educators Kidnap Or Arrest Outcome"
	ColStudentsOutcome  = "Known Student Kidnap Or Arrest Outcome"
	ColEventID          = "SiND Event ID"
)

// Derived columns.
const (
	ColYear           = "Year"
	ColMonth          = "Month"
	ColTotalVictims   = "Total Victims"
	ColTotalKilled    = "Total Killed"
	ColTotalInjured   = "Total Injured"
	ColTotalKidnapped = "Total Kidnapped"
	ColTotalArrested  = "Total Arrested"

	ColPctKilled    = "Pct_Killed"
	ColPctInjured   = "Pct_Injured"
	ColPctKidnapped = "Pct_Kidnapped"
	ColPctArrested  = "Pct_Arrested"
	ColPctSexual    = "Pct_Sexual"

	ColCluster = "Cluster"
)

// UnknownSentinel replaces blank region and location values.
const UnknownSentinel = "Unknown"

// DroppedColumns are removed at load: free text, outcome narratives and the
// internal source ID.
var DroppedColumns = []string{
	ColEventDescription,
	ColEducatorsOutcome,
	ColStudentsOutcome,
	ColEventID,
}

// VictimColumns are the eight role×outcome counts summed into Total Victims.
var VictimColumns = []string{
	ColEducatorsKilled, ColEducatorsInjured, ColEducatorsKidnapped, ColEducatorsArrested,
	ColStudentsKilled, ColStudentsInjured, ColStudentsKidnapped, ColStudentsArrested,
}

// FlagColumns are the binary incident-type indicators.
var FlagColumns = []string{
	ColAttacksSchools,
	ColAttacksUniversities,
	ColMilitaryOccupation,
	ColArson,
	ColForcedEntry,
	ColDamage,
	ColAttacksStudentsTeachers,
}

// OutcomeTotals maps each aggregate to its educator and student components.
var OutcomeTotals = []struct {
	Total    string
	Educator string
	Student  string
}{
	{ColTotalKilled, ColEducatorsKilled, ColStudentsKilled},
	{ColTotalInjured, ColEducatorsInjured, ColStudentsInjured},
	{ColTotalKidnapped, ColEducatorsKidnapped, ColStudentsKidnapped},
	{ColTotalArrested, ColEducatorsArrested, ColStudentsArrested},
}

// RatioColumns are the clustering features, in matrix column order.
var RatioColumns = []string{ColPctKilled, ColPctInjured, ColPctKidnapped, ColPctArrested, ColPctSexual}

// ratioSources pairs each ratio with its numerator column.
var ratioSources = []struct{ ratio, count string }{
	{ColPctKilled, ColTotalKilled},
	{ColPctInjured, ColTotalInjured},
	{ColPctKidnapped, ColTotalKidnapped},
	{ColPctArrested, ColTotalArrested},
	{ColPctSexual, ColSexualViolence},
}

// optional raw columns are kept when present and typed if numeric.
var (
	textColumns = []string{
		ColDate, ColCountry, ColCountryISO, ColAdmin1, ColLocation,
		ColPerpetrator, ColPerpetratorName, ColWeapon, ColFacility,
	}
	optionalCountColumns = []string{ColStudentsAttacked}
)

// RequiredColumns lists every raw column the pipeline reads.
func RequiredColumns() []string {
	out := make([]string, 0, len(textColumns)+2+len(FlagColumns)+len(VictimColumns)+1)
	out = append(out, textColumns...)
	out = append(out, ColLatitude, ColLongitude)
	out = append(out, FlagColumns...)
	out = append(out, VictimColumns...)
	out = append(out, ColSexualViolence)
	return out
}
