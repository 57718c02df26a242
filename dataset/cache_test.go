package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Cache", func() {
	var tempDir string
	var cache *Cache
	var opens int

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "cache-test")
		Expect(err).NotTo(HaveOccurred())

		opens = 0
		cache = NewCache(time.Hour)
		cache.open = func(defaultPath string, upload *Upload) (*Dataset, error) {
			opens++
			return Open(defaultPath, upload)
		}
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	It("loads a source once and reuses it", func() {
		path := writeCSV(tempDir, "mbti.csv", "Country,INFJ\nKorea,0.3\n")

		first, err := cache.Get(path, nil)
		Expect(err).NotTo(HaveOccurred())
		second, err := cache.Get(path, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(second).To(BeIdenticalTo(first))
		Expect(opens).To(Equal(1))
		Expect(cache.Len()).To(Equal(1))
	})

	It("reloads when the upload content changes", func() {
		missing := filepath.Join(tempDir, "missing.csv")
		a := &Upload{Name: "a.csv", Content: []byte("Country,INFJ\nKorea,0.3\n")}
		b := &Upload{Name: "b.csv", Content: []byte("Country,INFJ\nJapan,0.4\n")}

		dsA, err := cache.Get(missing, a)
		Expect(err).NotTo(HaveOccurred())
		dsB, err := cache.Get(missing, b)
		Expect(err).NotTo(HaveOccurred())
		_, err = cache.Get(missing, &Upload{Name: "renamed.csv", Content: a.Content})
		Expect(err).NotTo(HaveOccurred())

		Expect(dsA.Records[0].Country).To(Equal("Korea"))
		Expect(dsB.Records[0].Country).To(Equal("Japan"))
		Expect(opens).To(Equal(2))
	})

	It("does not cache failures", func() {
		path := writeCSV(tempDir, "mbti.csv", "Region,INFJ\nAsia,0.3\n")
		_, err := cache.Get(path, nil)
		Expect(err).To(HaveOccurred())
		Expect(cache.Len()).To(Equal(0))

		writeCSV(tempDir, "mbti.csv", "Country,INFJ\nKorea,0.3\n")
		_, err = cache.Get(path, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(opens).To(Equal(2))
	})

	It("returns NoDataSourceError without a source", func() {
		_, err := cache.Get(filepath.Join(tempDir, "missing.csv"), nil)
		var ns *NoDataSourceError
		Expect(errors.As(err, &ns)).To(BeTrue())
		Expect(opens).To(Equal(0))
	})

	It("reloads after Invalidate", func() {
		path := writeCSV(tempDir, "mbti.csv", "Country,INFJ\nKorea,0.3\n")
		_, err := cache.Get(path, nil)
		Expect(err).NotTo(HaveOccurred())

		cache.Invalidate(path, nil)
		_, err = cache.Get(path, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(opens).To(Equal(2))
	})

	Describe("SourceKey", func() {
		It("keys the default file by absolute path", func() {
			path := writeCSV(tempDir, "mbti.csv", "Country,INFJ\n")
			abs, _ := filepath.Abs(path)
			Expect(SourceKey(path, &Upload{Content: []byte("x")})).To(Equal("local:" + abs))
		})

		It("keys uploads by content", func() {
			missing := filepath.Join(tempDir, "missing.csv")
			u := &Upload{Content: []byte("Country,INFJ\n")}
			Expect(SourceKey(missing, u)).To(Equal("upload:" + ContentKey(u.Content)))
			Expect(SourceKey(missing, nil)).To(BeEmpty())
		})
	})
})
