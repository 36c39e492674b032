package dataset_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/spinlab/internal/dataset"
	"github.com/san-kum/spinlab/internal/lattice"
)

type fixedSample struct {
	spins []int8
	tc    float64
}

func (f fixedSample) Spins() []int8 {
	out := make([]int8, len(f.spins))
	copy(out, f.spins)
	return out
}

func (f fixedSample) CriticalTemperature() float64 { return f.tc }

var _ = Describe("EncodeLine", func() {
	It("maps +1 to 1 and -1 to 0", func() {
		Expect(dataset.EncodeLine([]int8{1, -1, -1, 1}, 1)).To(Equal("1 0 0 1\n"))
	})

	It("applies the global flip before encoding", func() {
		Expect(dataset.EncodeLine([]int8{1, -1, -1, 1}, -1)).To(Equal("0 1 1 0\n"))
	})
})

var _ = Describe("Phase", func() {
	It("labels temperatures above Tc as disordered", func() {
		Expect(dataset.Phase(3.0, 2.269)).To(Equal(1))
		Expect(dataset.Phase(2.0, 2.269)).To(Equal(0))
		Expect(dataset.Phase(2.269, 2.269)).To(Equal(0))
	})
})

var _ = Describe("Writer", func() {
	var (
		dir string
		w   *dataset.Writer
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		var err error
		w, err = dataset.NewWriter(dir, 10, 0.7, 1)
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects invalid construction arguments", func() {
		_, err := dataset.NewWriter(dir, 0, 0.5, 1)
		Expect(err).To(MatchError(dataset.ErrInvalid))

		_, err = dataset.NewWriter(dir, 10, 1.5, 1)
		Expect(err).To(MatchError(dataset.ErrInvalid))

		_, err = dataset.NewWriter(dir, 10, -0.1, 1)
		Expect(err).To(MatchError(dataset.ErrInvalid))
	})

	It("splits bins by the train fraction", func() {
		Expect(w.SplitFor(0)).To(Equal(dataset.Train))
		Expect(w.SplitFor(6)).To(Equal(dataset.Train))
		Expect(w.SplitFor(7)).To(Equal(dataset.Test))
		Expect(w.SplitFor(9)).To(Equal(dataset.Test))
	})

	It("rejects bins outside the range", func() {
		s := fixedSample{spins: []int8{1, 1}, tc: 2}
		Expect(w.Write(-1, 1, s)).To(MatchError(dataset.ErrInvalid))
		Expect(w.Write(10, 1, s)).To(MatchError(dataset.ErrInvalid))
	})

	It("writes configurations and labels to the matching split", func() {
		hot := fixedSample{spins: []int8{1, 1, 1, 1}, tc: 2.0}
		for bin := 0; bin < 10; bin++ {
			Expect(w.Write(bin, 3.0, hot)).To(Succeed())
		}
		Expect(w.Close()).To(Succeed())

		train, err := dataset.Load(dir, dataset.Train)
		Expect(err).NotTo(HaveOccurred())
		Expect(train.Configs).To(HaveLen(7))
		Expect(train.Labels).To(HaveEach(1))

		test, err := dataset.Load(dir, dataset.Test)
		Expect(err).NotTo(HaveOccurred())
		Expect(test.Configs).To(HaveLen(3))

		// an aligned sample encodes to all ones or all zeros
		for _, row := range append(train.Configs, test.Configs...) {
			Expect(row).To(HaveLen(4))
			Expect(row).To(Or(HaveEach(uint8(0)), HaveEach(uint8(1))))
		}
	})

	It("balances the magnetization sign across samples", func() {
		up := fixedSample{spins: []int8{1, 1, 1}, tc: 2.0}
		for i := 0; i < 200; i++ {
			Expect(w.Write(0, 1.0, up)).To(Succeed())
		}
		Expect(w.Close()).To(Succeed())

		set, err := dataset.Load(dir, dataset.Train)
		Expect(err).NotTo(HaveOccurred())
		ones := 0
		for _, row := range set.Configs {
			if row[0] == 1 {
				ones++
			}
		}
		Expect(ones).To(BeNumerically(">", 50))
		Expect(ones).To(BeNumerically("<", 150))
		Expect(set.Labels).To(HaveEach(0))
	})

	It("appends to existing files", func() {
		s := fixedSample{spins: []int8{-1, 1}, tc: 2.0}
		Expect(w.Write(0, 1.0, s)).To(Succeed())
		Expect(w.Close()).To(Succeed())

		again, err := dataset.NewWriter(dir, 10, 0.7, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Write(1, 1.0, s)).To(Succeed())
		Expect(again.Close()).To(Succeed())

		data, err := os.ReadFile(filepath.Join(dir, "Xtrain.txt"))
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.Count(string(data), "\n")).To(Equal(2))
	})

	It("counts samples per split", func() {
		s := fixedSample{spins: []int8{1}, tc: 1}
		Expect(w.Write(0, 2, s)).To(Succeed())
		Expect(w.Write(8, 2, s)).To(Succeed())
		Expect(w.Write(9, 2, s)).To(Succeed())
		train, test := w.Counts()
		Expect(train).To(Equal(1))
		Expect(test).To(Equal(2))
		Expect(w.Close()).To(Succeed())
	})

	It("leaves the live model untouched", func() {
		m, err := lattice.New(4, 1, lattice.Ising)
		Expect(err).NotTo(HaveOccurred())
		m.Initialize(5)
		before := m.Spins()

		for i := 0; i < 20; i++ {
			Expect(w.Write(i%10, 1.5, m)).To(Succeed())
		}
		Expect(m.Spins()).To(Equal(before))
		Expect(w.Close()).To(Succeed())
	})

	It("writes gauge link configurations of length 2L^2", func() {
		m, err := lattice.New(3, 1, lattice.Gauge)
		Expect(err).NotTo(HaveOccurred())
		m.Initialize(1)
		Expect(w.Write(0, 3.0, m)).To(Succeed())
		Expect(w.Close()).To(Succeed())

		set, err := dataset.Load(dir, dataset.Train)
		Expect(err).NotTo(HaveOccurred())
		Expect(set.Configs[0]).To(HaveLen(18))
		Expect(set.Labels).To(Equal([]int{1}))
	})
})

var _ = Describe("Load", func() {
	It("fails on a missing split", func() {
		_, err := dataset.Load(GinkgoT().TempDir(), dataset.Test)
		Expect(err).To(HaveOccurred())
	})

	It("rejects malformed spins", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "Xtrain.txt"), []byte("1 2 0\n"), 0644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "ytrain.txt"), []byte("0\n"), 0644)).To(Succeed())
		_, err := dataset.Load(dir, dataset.Train)
		Expect(err).To(HaveOccurred())
	})
})
