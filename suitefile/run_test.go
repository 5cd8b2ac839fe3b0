package suitefile_test

import (
	"bytes"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/flanksource/galvanic/fixtures"
	"github.com/flanksource/galvanic/suitefile"
)

func outcomesByTest(report *suitefile.FileReport) map[string]*fixtures.Outcome {
	m := map[string]*fixtures.Outcome{}
	for _, o := range report.Outcomes {
		m[o.Test] = o
	}
	return m
}

var _ = Describe("Running suite files", func() {
	var out *bytes.Buffer
	var opts suitefile.Options

	BeforeEach(func() {
		out = &bytes.Buffer{}
		opts = suitefile.Options{Runner: fixtures.RunnerOptions{Stdout: out}}
	})

	It("runs every combination of a passing suite", func() {
		file, err := suitefile.Load(filepath.Join("testdata", "arithmetic.yaml"))
		Expect(err).NotTo(HaveOccurred())

		report := suitefile.Run([]*suitefile.File{file}, opts)
		Expect(report.Files).To(HaveLen(1))
		fr := report.Files[0]
		Expect(fr.Err).NotTo(HaveOccurred())
		Expect(report.Failed()).To(BeFalse(), out.String())

		outcomes := outcomesByTest(fr)
		Expect(outcomes["products"].Executed()).To(Equal(3))
		Expect(outcomes["pinned"].Executed()).To(Equal(1))
		Expect(outcomes["pinned"].Results[0].Description).To(HavePrefix("double(21)"))
		Expect(outcomes["cross"].Executed()).To(Equal(9))
		Expect(outcomes["strings"].Executed()).To(Equal(1))
		Expect(report.Stats()).To(Equal(fixtures.Stats{Total: 4, Passed: 4}))
		Expect(out.String()).To(BeEmpty())
	})

	It("reports failing combinations without stopping", func() {
		file, err := suitefile.Load(filepath.Join("testdata", "failing.yaml"))
		Expect(err).NotTo(HaveOccurred())

		report := suitefile.Run([]*suitefile.File{file}, opts)
		Expect(report.Failed()).To(BeTrue())

		outcome := report.Files[0].Outcomes[0]
		Expect(outcome.Executed()).To(Equal(3))
		Expect(outcome.Stats).To(Equal(fixtures.Stats{Total: 3, Passed: 2, Failed: 1}))
		Expect(outcome.Results[1].Failure.Err.Error()).To(ContainSubstring("assertion failed: n.value != 2"))
		Expect(out.String()).To(ContainSubstring(fixtures.FailureBanner + "\n    n{it:2}"))
	})

	It("rejects a bare reference to a fixture without values", func() {
		file, err := suitefile.Load(filepath.Join("testdata", "unpinned.yaml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(file.Name).To(Equal("unpinned"))

		report := suitefile.Run([]*suitefile.File{file}, opts)
		fr := report.Files[0]
		Expect(fixtures.IsUsageError(fr.Err)).To(BeTrue())
		Expect(fr.Err.Error()).To(ContainSubstring(fixtures.ErrMissingGenerator))

		outcomes := outcomesByTest(fr)
		Expect(outcomes["bare"].Executed()).To(BeZero())
		Expect(outcomes["pinned"].Failed()).To(BeFalse())
	})

	It("runs only tests matching the filter", func() {
		file, err := suitefile.Load(filepath.Join("testdata", "arithmetic.yaml"))
		Expect(err).NotTo(HaveOccurred())

		opts.Filter = "p*"
		report := suitefile.Run([]*suitefile.File{file}, opts)
		Expect(outcomesByTest(report.Files[0])).To(HaveLen(2))
		Expect(report.Files[0].GetChildren()).To(HaveLen(2))
	})

	It("loads files by glob", func() {
		files, err := suitefile.LoadGlob("testdata/**/*.yaml", "testdata/arithmetic.yaml")
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(HaveLen(3))
	})

	It("lists tests with their invocation counts", func() {
		files, err := suitefile.LoadGlob("testdata/arithmetic.yaml", "testdata/unpinned.yaml")
		Expect(err).NotTo(HaveOccurred())

		listing := suitefile.List(files, "")
		counts := map[string]int{}
		errs := map[string]error{}
		for _, t := range listing.Tests {
			counts[t.Suite+"/"+t.Test] = t.Invocations
			errs[t.Suite+"/"+t.Test] = t.Err
		}
		Expect(counts).To(HaveKeyWithValue("arithmetic/products", 3))
		Expect(counts).To(HaveKeyWithValue("arithmetic/cross", 9))
		Expect(counts).To(HaveKeyWithValue("unpinned/pinned", 1))
		Expect(errs["unpinned/bare"]).To(HaveOccurred())
		Expect(listing.GetChildren()).To(HaveLen(len(listing.Tests)))
	})

	It("rejects an invalid filter", func() {
		file, err := suitefile.Load(filepath.Join("testdata", "arithmetic.yaml"))
		Expect(err).NotTo(HaveOccurred())
		_, err = file.Build("[", fixtures.RunnerOptions{})
		Expect(err).To(MatchError(ContainSubstring("invalid filter")))
	})

	It("runs a suite embedded in markdown", func() {
		file, err := suitefile.Load(filepath.Join("testdata", "tables.md"))
		Expect(err).NotTo(HaveOccurred())

		report := suitefile.Run([]*suitefile.File{file}, opts)
		Expect(report.Failed()).To(BeFalse(), out.String())
		Expect(report.Files[0].Outcomes[0].Executed()).To(Equal(6))
	})
})
