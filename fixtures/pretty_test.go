package fixtures

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/task"
)

var _ = Describe("Invocation Result Pretty", func() {
	DescribeTable("should format invocation results",
		func(result InvocationResult, expectedContains []string) {
			output, err := clicky.Format(result)
			Expect(err).NotTo(HaveOccurred())
			Expect(output).NotTo(BeEmpty())

			text := result.Pretty().String()
			for _, s := range expectedContains {
				Expect(text).To(ContainSubstring(s))
			}
		},
		Entry("passing invocation",
			InvocationResult{
				Index:       0,
				Description: "mul{X:1 Y:1}",
				Status:      task.StatusPASS,
				Duration:    1200 * time.Millisecond,
			},
			[]string{"#0", "mul{X:1 Y:1}", "1.2s"}),

		Entry("failing invocation",
			InvocationResult{
				Index:       4,
				Description: "A(2), B(2)",
				Status:      task.StatusFAIL,
				Failure: &InvocationFailure{
					Index: 4,
					Phase: PhaseBody,
					Err:   errors.New("expected 4, got 5"),
				},
			},
			[]string{"#4", "A(2), B(2)", "expected 4, got 5"}),

		Entry("teardown failure",
			InvocationResult{
				Index:       1,
				Description: "db{}",
				Status:      task.StatusFAIL,
				Teardowns: []*TeardownFailure{
					{Index: 1, Fixture: "db", Err: errors.New("connection leaked")},
				},
			},
			[]string{"db{}", "teardown of 'db' failed in invocation 1: connection leaked"}),
	)
})

var _ = Describe("Outcome", func() {
	It("renders the invocations as children", func() {
		outcome := &Outcome{
			Test: "products",
			Results: []*InvocationResult{
				{Index: 0, Description: "mul{X:1 Y:1}", Status: task.StatusPASS},
				{Index: 1, Description: "mul{X:2 Y:4}", Status: task.StatusFAIL},
			},
		}
		for _, r := range outcome.Results {
			outcome.Stats = outcome.Stats.Add(r)
		}

		Expect(outcome.Failed()).To(BeTrue())
		Expect(outcome.Status()).To(Equal(task.StatusFAIL))
		Expect(outcome.GetChildren()).To(HaveLen(2))
		Expect(outcome.Pretty().String()).To(ContainSubstring("products"))
		Expect(Summary(outcome)).To(ContainSubstring("products"))
	})

	It("reports malformed tests as errors", func() {
		outcome := &Outcome{Test: "broken", Err: &UsageError{Reason: "unknown fixture"}}
		Expect(outcome.Failed()).To(BeTrue())
		Expect(outcome.Status()).To(Equal(task.StatusERR))
		Expect(outcome.GetChildren()).To(BeNil())
	})
})

var _ = Describe("Stats", func() {
	DescribeTable("should detect failures correctly",
		func(results Stats, expected bool) {
			Expect(results.HasFailures()).To(Equal(expected))
			Expect(results.IsOK()).To(Equal(!expected))
		},
		Entry("no failures", Stats{Total: 3, Passed: 3}, false),
		Entry("has failures", Stats{Total: 3, Passed: 2, Failed: 1}, true),
		Entry("has errors", Stats{Total: 3, Passed: 2, Error: 1}, true),
	)

	It("merges counts", func() {
		merged := Stats{Total: 2, Passed: 1, Failed: 1}.Merge(Stats{Total: 1, Error: 1})
		Expect(merged).To(Equal(Stats{Total: 3, Passed: 1, Failed: 1, Error: 1}))
		Expect(merged.String()).To(Equal("1/3 1 error"))
	})
})
