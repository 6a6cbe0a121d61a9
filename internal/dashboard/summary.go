package dashboard

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/edudanger-cli/internal/dataset"
)

// SouthAmerica lists the countries shown in the regional view.
var SouthAmerica = []string{
	"Argentina", "Bolivia", "Brazil", "Chile", "Colombia", "Ecuador",
	"Guyana", "Paraguay", "Peru", "Suriname", "Uruguay", "Venezuela",
}

const (
	topN           = 10
	crossCountries = 5
)

// Summary holds chart-ready aggregates of one filtered dataset.
type Summary struct {
	Name         string `json:"name"`
	Incidents    int    `json:"incidents"`
	TotalVictims int    `json:"total_victims"`
	Countries    int    `json:"countries"`
	YearMin      int    `json:"year_min,omitempty"`
	YearMax      int    `json:"year_max,omitempty"`

	TopCountries    []CategoryCount `json:"top_countries"`
	TopPerpetrators []CategoryCount `json:"top_perpetrators"`
	TopWeapons      []CategoryCount `json:"top_weapons"`
	Monthly         []CategoryCount `json:"monthly"`
	IncidentTypes   []CategoryCount `json:"incident_types"`
	Severity        []Severity      `json:"severity"`
	HumanCost       []CategoryCount `json:"human_cost"`
	CountryPerp     []Share         `json:"country_perpetrator"`
	Regional        []CategoryCount `json:"south_america"`
	VictimBoxes     []BoxStats      `json:"victims_by_perpetrator"`

	Clusters []ClusterProfile `json:"clusters,omitempty"`
	Score    *float64         `json:"silhouette,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Severity is the mean Total Victims over incidents of one type.
type Severity struct {
	Type        string  `json:"type"`
	Incidents   int     `json:"incidents"`
	MeanVictims float64 `json:"mean_victims"`
}

// Share is the percentage of a country's incidents attributed to one
// perpetrator category.
type Share struct {
	Country     string  `json:"country"`
	Perpetrator string  `json:"perpetrator"`
	Count       int     `json:"count"`
	Percent     float64 `json:"percent"`
}

// BoxStats are the five-number summary of a distribution.
type BoxStats struct {
	Group  string  `json:"group"`
	N      int     `json:"n"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// ClusterProfile describes one cluster by its mean impact ratios.
type ClusterProfile struct {
	Label       int                `json:"label"`
	Size        int                `json:"size"`
	MeanRatios  map[string]float64 `json:"mean_ratios"`
	MeanVictims float64            `json:"mean_victims"`
}

// Summarize computes every aggregate for d. A zero-row dataset yields empty
// sections, not an error.
func Summarize(d *dataset.Dataset) *Summary {
	s := &Summary{Name: d.Name(), Incidents: d.Len()}
	victims := d.Ints(dataset.ColTotalVictims)
	for _, v := range victims {
		s.TotalVictims += v
	}
	countries := d.Strings(dataset.ColCountry)
	perps := d.Strings(dataset.ColPerpetrator)
	s.Countries = len(d.Unique(dataset.ColCountry))
	if lo, hi, ok := d.YearRange(); ok {
		s.YearMin, s.YearMax = lo, hi
	}

	s.TopCountries = topCounts(countries, topN)
	s.TopPerpetrators = topCounts(perps, topN)
	s.TopWeapons = topCounts(d.Strings(dataset.ColWeapon), topN)

	months := map[string]int{}
	for _, date := range d.Strings(dataset.ColDate) {
		if len(date) >= 7 {
			months[date[:7]]++
		}
	}
	for m, n := range months {
		s.Monthly = append(s.Monthly, CategoryCount{Value: m, Count: n})
	}
	sort.Slice(s.Monthly, func(i, j int) bool { return s.Monthly[i].Value < s.Monthly[j].Value })

	for _, c := range dataset.FlagColumns {
		flags := d.Ints(c)
		sum, n, vsum := 0, 0, 0
		for i, f := range flags {
			sum += f
			if f > 0 {
				n++
				vsum += victims[i]
			}
		}
		s.IncidentTypes = append(s.IncidentTypes, CategoryCount{Value: c, Count: sum})
		if n > 0 {
			s.Severity = append(s.Severity, Severity{Type: c, Incidents: n, MeanVictims: float64(vsum) / float64(n)})
		}
	}
	sortCounts(s.IncidentTypes)
	sort.SliceStable(s.Severity, func(i, j int) bool { return s.Severity[i].MeanVictims > s.Severity[j].MeanVictims })

	for _, c := range dataset.VictimColumns {
		sum := 0
		for _, v := range d.Ints(c) {
			sum += v
		}
		s.HumanCost = append(s.HumanCost, CategoryCount{Value: c, Count: sum})
	}
	sortCounts(s.HumanCost)

	s.CountryPerp = countryPerpetratorShares(countries, perps, crossCountries)

	south := map[string]bool{}
	for _, c := range SouthAmerica {
		south[c] = true
	}
	var regional []string
	for _, c := range countries {
		if south[c] {
			regional = append(regional, c)
		}
	}
	s.Regional = topCounts(regional, 0)

	s.VictimBoxes = boxesBy(perps, victims)
	s.Clusters = ProfileClusters(d)
	return s
}

// ProfileClusters summarizes a clustered dataset per label; nil when d has no
// Cluster column.
func ProfileClusters(d *dataset.Dataset) []ClusterProfile {
	if !d.HasColumn(dataset.ColCluster) {
		return nil
	}
	labels := d.Ints(dataset.ColCluster)
	victims := d.Ints(dataset.ColTotalVictims)
	ratios := map[string][]float64{}
	for _, c := range dataset.RatioColumns {
		if d.HasColumn(c) {
			ratios[c] = d.Floats(c)
		}
	}
	byLabel := map[int]*ClusterProfile{}
	for i, l := range labels {
		p, ok := byLabel[l]
		if !ok {
			p = &ClusterProfile{Label: l, MeanRatios: map[string]float64{}}
			byLabel[l] = p
		}
		p.Size++
		p.MeanVictims += float64(victims[i])
		for c, vals := range ratios {
			p.MeanRatios[c] += vals[i]
		}
	}
	out := make([]ClusterProfile, 0, len(byLabel))
	for _, p := range byLabel {
		n := float64(p.Size)
		p.MeanVictims /= n
		for c := range p.MeanRatios {
			p.MeanRatios[c] /= n
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// topCounts returns value frequencies, highest first with ties by name.
// limit <= 0 keeps every value.
func topCounts(vals []string, limit int) []CategoryCount {
	m := map[string]int{}
	for _, v := range vals {
		if strings.TrimSpace(v) == "" {
			continue
		}
		m[v]++
	}
	out := make([]CategoryCount, 0, len(m))
	for k, v := range m {
		out = append(out, CategoryCount{Value: k, Count: v})
	}
	sortCounts(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortCounts(cc []CategoryCount) {
	sort.Slice(cc, func(i, j int) bool {
		if cc[i].Count == cc[j].Count {
			return cc[i].Value < cc[j].Value
		}
		return cc[i].Count > cc[j].Count
	})
}

func countryPerpetratorShares(countries, perps []string, top int) []Share {
	var out []Share
	for _, cc := range topCounts(countries, top) {
		m := map[string]int{}
		for i, c := range countries {
			if c == cc.Value {
				m[perps[i]]++
			}
		}
		var shares []Share
		for p, n := range m {
			shares = append(shares, Share{
				Country:     cc.Value,
				Perpetrator: p,
				Count:       n,
				Percent:     math.Round(float64(n)*10000/float64(cc.Count)) / 100,
			})
		}
		sort.Slice(shares, func(i, j int) bool {
			if shares[i].Count == shares[j].Count {
				return shares[i].Perpetrator < shares[j].Perpetrator
			}
			return shares[i].Count > shares[j].Count
		})
		out = append(out, shares...)
	}
	return out
}

func boxesBy(groups []string, vals []int) []BoxStats {
	m := map[string][]float64{}
	for i, g := range groups {
		m[g] = append(m[g], float64(vals[i]))
	}
	out := make([]BoxStats, 0, len(m))
	for g, xs := range m {
		sort.Float64s(xs)
		out = append(out, BoxStats{
			Group:  g,
			N:      len(xs),
			Min:    xs[0],
			Q1:     quantile(xs, 0.25),
			Median: quantile(xs, 0.5),
			Q3:     quantile(xs, 0.75),
			Max:    xs[len(xs)-1],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Markdown renders the summary as a compact sectioned report.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Name != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", s.Name))
	}
	b.WriteString(fmt.Sprintf("Incidents: %d\n", s.Incidents))
	b.WriteString(fmt.Sprintf("Total victims: %d\n", s.TotalVictims))
	b.WriteString(fmt.Sprintf("Countries: %d\n", s.Countries))
	if s.YearMin > 0 {
		b.WriteString(fmt.Sprintf("Years: %d–%d\n", s.YearMin, s.YearMax))
	}

	writeCounts(&b, "TOP COUNTRIES", s.TopCountries)
	writeCounts(&b, "TOP PERPETRATORS", s.TopPerpetrators)
	writeCounts(&b, "TOP WEAPONS", s.TopWeapons)
	writeCounts(&b, "INCIDENT TYPES", s.IncidentTypes)
	if len(s.Severity) > 0 {
		b.WriteString("\n[SEVERITY BY INCIDENT TYPE]\n")
		for _, sv := range s.Severity {
			b.WriteString(fmt.Sprintf("- %s: mean victims %.2f (n=%d)\n", sv.Type, sv.MeanVictims, sv.Incidents))
		}
	}
	writeCounts(&b, "HUMAN COST", s.HumanCost)
	if len(s.CountryPerp) > 0 {
		b.WriteString("\n[PERPETRATORS BY COUNTRY]\n")
		for _, sh := range s.CountryPerp {
			b.WriteString(fmt.Sprintf("- %s / %s: %.2f%% (%d)\n", safeVal(sh.Country), safeVal(sh.Perpetrator), sh.Percent, sh.Count))
		}
	}
	writeCounts(&b, "SOUTH AMERICA", s.Regional)
	if len(s.VictimBoxes) > 0 {
		b.WriteString("\n[VICTIMS PER INCIDENT BY PERPETRATOR]\n")
		for _, bx := range s.VictimBoxes {
			b.WriteString(fmt.Sprintf("- %s (n=%d): min %.4g, q1 %.4g, median %.4g, q3 %.4g, max %.4g\n",
				safeVal(bx.Group), bx.N, bx.Min, bx.Q1, bx.Median, bx.Q3, bx.Max))
		}
	}
	writeCounts(&b, "MONTHLY INCIDENTS", s.Monthly)
	if len(s.Clusters) > 0 {
		writeClusters(&b, s.Clusters, s.Score)
	}
	writeNotes(&b, s.Warnings)
	return b.String()
}

func writeClusters(b *strings.Builder, profiles []ClusterProfile, score *float64) {
	b.WriteString("\n[CLUSTERS]\n")
	if score != nil {
		b.WriteString(fmt.Sprintf("Silhouette: %.3f\n", *score))
	} else {
		b.WriteString("Silhouette: unavailable\n")
	}
	b.WriteString("| Cluster | Size | Mean victims |")
	for _, c := range dataset.RatioColumns {
		b.WriteString(" " + c + " |")
	}
	b.WriteString("\n|---|---|---|")
	for range dataset.RatioColumns {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for _, p := range profiles {
		b.WriteString(fmt.Sprintf("| %d | %d | %.2f |", p.Label, p.Size, p.MeanVictims))
		for _, c := range dataset.RatioColumns {
			b.WriteString(fmt.Sprintf(" %.3f |", p.MeanRatios[c]))
		}
		b.WriteString("\n")
	}
}

func writeNotes(b *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	b.WriteString("\n[NOTES]\n")
	for _, w := range warnings {
		b.WriteString("- ")
		b.WriteString(w)
		b.WriteString("\n")
	}
}

func writeCounts(b *strings.Builder, title string, cc []CategoryCount) {
	if len(cc) == 0 {
		return
	}
	b.WriteString("\n[" + title + "]\n")
	for _, c := range cc {
		b.WriteString(fmt.Sprintf("- %s: %d\n", safeVal(c.Value), c.Count))
	}
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
