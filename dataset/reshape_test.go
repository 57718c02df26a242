package dataset

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func mustParse(csv string) *RawTable {
	table, err := Parse(strings.NewReader(csv))
	Expect(err).NotTo(HaveOccurred())
	Expect(normalizeCountryColumn(table)).To(Succeed())
	return table
}

var _ = Describe("DetectTypeColumns", func() {
	It("keeps only full four-letter type codes, sorted", func() {
		cols := []string{"Country", "INFJ", "infj", "INFJX", "XNFJ", "ESTP", "ENTP"}
		Expect(DetectTypeColumns(cols)).To(Equal([]string{"ENTP", "ESTP", "INFJ"}))
	})

	It("returns nothing when no column matches", func() {
		Expect(DetectTypeColumns([]string{"Country", "Score"})).To(BeEmpty())
	})

	It("accepts all sixteen codes", func() {
		var all []string
		for _, a := range "IE" {
			for _, b := range "NS" {
				for _, c := range "FT" {
					for _, d := range "PJ" {
						all = append(all, string([]rune{a, b, c, d}))
					}
				}
			}
		}
		Expect(DetectTypeColumns(all)).To(HaveLen(16))
	})
})

var _ = Describe("BuildLongForm", func() {
	It("keeps fractional values unchanged (max <= 1.5)", func() {
		table := mustParse("Country,INFJ,INFP\nKR,0.3,0.1\nUS,0.25,0.2\n")
		records := BuildLongForm(table, DetectTypeColumns(table.Columns))

		kr := findRecord(records, "KR", "INFJ")
		us := findRecord(records, "US", "INFJ")
		Expect(kr.Ratio).To(Equal(0.3))
		Expect(us.Ratio).To(Equal(0.25))
		Expect(kr.Rank).To(Equal(1))
		Expect(us.Rank).To(Equal(2))
	})

	It("scales percentage values by 1/100 (max > 1.5)", func() {
		table := mustParse("Country,INFJ,INFP\nKR,30,10\nUS,25,20\n")
		records := BuildLongForm(table, DetectTypeColumns(table.Columns))

		kr := findRecord(records, "KR", "INFJ")
		us := findRecord(records, "US", "INFJ")
		Expect(kr.RawValue).To(Equal(30.0))
		Expect(kr.Ratio).To(BeNumerically("~", 0.30, 1e-12))
		Expect(us.Ratio).To(BeNumerically("~", 0.25, 1e-12))
		Expect(kr.Rank).To(Equal(1))
		Expect(us.Rank).To(Equal(2))
	})

	It("makes one scaling decision for the whole dataset", func() {
		table := mustParse("Country,INFJ,INFP\nKR,0.2,40\nUS,0.3,1\n")
		records := BuildLongForm(table, DetectTypeColumns(table.Columns))

		Expect(findRecord(records, "KR", "INFJ").Ratio).To(BeNumerically("~", 0.002, 1e-12))
		Expect(findRecord(records, "US", "INFJ").Ratio).To(BeNumerically("~", 0.003, 1e-12))
		Expect(findRecord(records, "KR", "INFP").Ratio).To(BeNumerically("~", 0.4, 1e-12))
	})

	It("treats exactly 1.5 as a fraction", func() {
		table := mustParse("Country,INFJ\nKR,1.5\nUS,0.5\n")
		records := BuildLongForm(table, []string{"INFJ"})
		Expect(findRecord(records, "KR", "INFJ").Ratio).To(Equal(1.5))
	})

	It("drops unparsable values instead of defaulting them", func() {
		table := mustParse("Country,INFJ,INFP\nKR,0.3,0.1\nUS,N/A,0.2\nJP,0.2,0.4\n")
		records := BuildLongForm(table, DetectTypeColumns(table.Columns))

		Expect(records).To(HaveLen(3*2 - 1))
		for _, r := range records {
			Expect(r.Country == "US" && r.TypeCode == "INFJ").To(BeFalse())
		}
	})

	It("drops empty, NaN and infinite cells", func() {
		table := mustParse("Country,INFJ\nA,\nB,NaN\nC,Inf\nD,0.4\n")
		records := BuildLongForm(table, []string{"INFJ"})
		Expect(records).To(HaveLen(1))
		Expect(records[0].Country).To(Equal("D"))
	})

	It("trims country names", func() {
		table := mustParse("Country,INFJ\n  South Korea  ,0.3\n")
		records := BuildLongForm(table, []string{"INFJ"})
		Expect(records[0].Country).To(Equal("South Korea"))
	})

	It("breaks ties by encounter order, not by name", func() {
		table := mustParse("Country,INFJ\nZambia,0.2\nBrazil,0.3\nAngola,0.2\n")
		records := BuildLongForm(table, []string{"INFJ"})

		Expect(findRecord(records, "Brazil", "INFJ").Rank).To(Equal(1))
		Expect(findRecord(records, "Zambia", "INFJ").Rank).To(Equal(2))
		Expect(findRecord(records, "Angola", "INFJ").Rank).To(Equal(3))
	})

	It("yields no rows for a type whose values are all unparsable", func() {
		table := mustParse("Country,INFJ,INFP\nKR,x,0.1\nUS,y,0.2\n")
		records := BuildLongForm(table, DetectTypeColumns(table.Columns))
		for _, r := range records {
			Expect(r.TypeCode).To(Equal("INFP"))
		}
		Expect(records).To(HaveLen(2))
	})

	It("returns nothing for an empty table", func() {
		table := mustParse("Country,INFJ\n")
		Expect(BuildLongForm(table, []string{"INFJ"})).To(BeEmpty())
	})

	Describe("properties", func() {
		var records []LongRecord

		BeforeEach(func() {
			rng := rand.New(rand.NewPCG(7, 11))
			types := []string{"INFJ", "ENTP", "ISTJ"}
			var b strings.Builder
			b.WriteString("Country," + strings.Join(types, ",") + "\n")
			for i := range 60 {
				fmt.Fprintf(&b, "C%02d", i)
				for range types {
					switch {
					case rng.IntN(10) == 0:
						b.WriteString(",n/a")
					case rng.IntN(4) == 0:
						b.WriteString(",12.5") // force ties
					default:
						fmt.Fprintf(&b, ",%.2f", rng.Float64()*100)
					}
				}
				b.WriteString("\n")
			}
			table := mustParse(b.String())
			records = BuildLongForm(table, DetectTypeColumns(table.Columns))
		})

		It("keeps every ratio within [0, 1]", func() {
			for _, r := range records {
				Expect(r.Ratio).To(And(BeNumerically(">=", 0), BeNumerically("<=", 1)))
			}
		})

		It("assigns dense ranks that follow descending ratio", func() {
			byType := map[string][]LongRecord{}
			for _, r := range records {
				byType[r.TypeCode] = append(byType[r.TypeCode], r)
			}
			for _, group := range byType {
				slices.SortFunc(group, func(a, b LongRecord) int { return a.Rank - b.Rank })
				for i, r := range group {
					Expect(r.Rank).To(Equal(i + 1))
					if i > 0 {
						Expect(group[i-1].Ratio).To(BeNumerically(">=", r.Ratio))
					}
				}
			}
		})

		It("ranks ties in row order", func() {
			byType := map[string][]LongRecord{}
			for _, r := range records {
				byType[r.TypeCode] = append(byType[r.TypeCode], r)
			}
			for _, group := range byType {
				// group is in row order; among equal ratios ranks must increase
				for i := range group {
					for j := i + 1; j < len(group); j++ {
						if group[i].Ratio == group[j].Ratio {
							Expect(group[i].Rank).To(BeNumerically("<", group[j].Rank))
						}
					}
				}
			}
		})
	})
})
