package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Load", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "dataset-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	It("uses the default file when it exists", func() {
		path := writeCSV(tempDir, "mbti.csv", "Country,INFJ\nKorea,0.3\n")
		upload := &Upload{Name: "other.csv", Content: []byte("Country,ENTP\nJapan,0.1\n")}

		table, source, err := Load(path, upload)
		Expect(err).NotTo(HaveOccurred())
		Expect(source).To(Equal("local:" + path))
		Expect(table.Columns).To(Equal([]string{"Country", "INFJ"}))
		Expect(table.Rows).To(HaveLen(1))
	})

	It("falls back to the upload when the default file is missing", func() {
		upload := &Upload{Name: "up.csv", Content: []byte("Country,ENTP\nJapan,0.1\n")}

		table, source, err := Load(filepath.Join(tempDir, "missing.csv"), upload)
		Expect(err).NotTo(HaveOccurred())
		Expect(source).To(Equal("uploaded"))
		Expect(table.Columns).To(ContainElement("ENTP"))
	})

	It("fails with NoDataSourceError when nothing is available", func() {
		missing := filepath.Join(tempDir, "missing.csv")
		_, _, err := Load(missing, nil)

		var ns *NoDataSourceError
		Expect(errors.As(err, &ns)).To(BeTrue())
		Expect(ns.Path).To(Equal(missing))
		Expect(IsNoDataSource(err)).To(BeTrue())
	})

	It("does not treat a directory as the default file", func() {
		_, _, err := Load(tempDir, nil)
		Expect(IsNoDataSource(err)).To(BeTrue())
	})

	It("trims column names", func() {
		path := writeCSV(tempDir, "mbti.csv", " Country ,  INFJ \nKorea,0.3\n")
		table, _, err := Load(path, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Columns).To(Equal([]string{"Country", "INFJ"}))
	})

	It("strips a UTF-8 byte order mark", func() {
		path := writeCSV(tempDir, "mbti.csv", "\ufeffCountry,INFJ\nKorea,0.3\n")
		table, _, err := Load(path, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Columns[0]).To(Equal("Country"))
	})

	It("renames a 'nation' column to Country", func() {
		path := writeCSV(tempDir, "mbti.csv", "nation,INFJ,INFP\nKorea,0.3,0.1\n")
		table, _, err := Load(path, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Columns).To(Equal([]string{"Country", "INFJ", "INFP"}))
	})

	It("matches country aliases case-insensitively, first match wins", func() {
		path := writeCSV(tempDir, "mbti.csv", "Code,NAME,Countries,INFJ\nKR,Korea,x,0.3\n")
		table, _, err := Load(path, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Columns).To(Equal([]string{"Code", "Country", "Countries", "INFJ"}))
	})

	It("prefers an exact Country column over aliases", func() {
		path := writeCSV(tempDir, "mbti.csv", "name,Country,INFJ\nx,Korea,0.3\n")
		table, _, err := Load(path, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Columns).To(Equal([]string{"name", "Country", "INFJ"}))
	})

	It("fails with MissingCountryColumnError without a country-like column", func() {
		path := writeCSV(tempDir, "mbti.csv", "Region,INFJ\nAsia,0.3\n")
		_, _, err := Load(path, nil)

		var mc *MissingCountryColumnError
		Expect(errors.As(err, &mc)).To(BeTrue())
		Expect(mc.Columns).To(Equal([]string{"Region", "INFJ"}))
		Expect(IsDataError(err)).To(BeTrue())
	})

	It("reports an empty file", func() {
		path := writeCSV(tempDir, "mbti.csv", "")
		_, _, err := Load(path, nil)
		Expect(err).To(MatchError(ErrEmptyFile))
		Expect(IsDataError(err)).To(BeTrue())
	})

	It("does not modify the source file", func() {
		content := " nation ,INFJ\nKorea,30\n"
		path := writeCSV(tempDir, "mbti.csv", content)
		_, err := Open(path, nil)
		Expect(err).NotTo(HaveOccurred())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(content))
	})
})

var _ = Describe("Parse", func() {
	It("keeps short rows", func() {
		table, err := Parse(strings.NewReader("Country,INFJ,INFP\nKorea,0.3\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Cell(0, 2)).To(Equal(""))
	})

	It("reports malformed CSV as a data error", func() {
		_, err := Parse(strings.NewReader("Country,INFJ\nKor\"ea,0.3\n"))
		Expect(err).To(HaveOccurred())
		Expect(IsDataError(err)).To(BeTrue())
	})
})

var _ = Describe("Open", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "dataset-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	It("fails with NoTypeColumnsError when no column is a type code", func() {
		path := writeCSV(tempDir, "mbti.csv", "Country,Score,infj\nKorea,1,2\n")
		_, err := Open(path, nil)

		var nt *NoTypeColumnsError
		Expect(errors.As(err, &nt)).To(BeTrue())
		Expect(IsDataError(err)).To(BeTrue())
	})

	It("exposes sorted type codes", func() {
		path := writeCSV(tempDir, "mbti.csv", "Country,INTP,ENTP,INFJ\nKorea,0.1,0.2,0.3\n")
		ds, err := Open(path, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(ds.Types).To(Equal([]string{"ENTP", "INFJ", "INTP"}))
		Expect(ds.HasType("INFJ")).To(BeTrue())
		Expect(ds.HasType("ISTJ")).To(BeFalse())
	})

	It("is idempotent for the same source", func() {
		path := writeCSV(tempDir, "mbti.csv", "Country,INFJ,INFP\nKorea,30,10\nUSA,25,20\nJapan,N/A,15\n")
		first, err := Open(path, nil)
		Expect(err).NotTo(HaveOccurred())
		second, err := Open(path, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})
})
