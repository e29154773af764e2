package march_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/heatmarch/internal/checkpoint"
	"github.com/san-kum/heatmarch/internal/heat"
	"github.com/san-kum/heatmarch/internal/march"
)

// flakyBackend fails the solve of one step.
type flakyBackend struct {
	*heat.Backend
	failAt int
	step   int
}

func (b *flakyBackend) Assemble(ctx context.Context, req march.AssemblyRequest) (march.System, error) {
	b.step = req.Step
	return b.Backend.Assemble(ctx, req)
}

func (b *flakyBackend) Solve(ctx context.Context, sys march.System) (march.Vector, error) {
	if b.step == b.failAt {
		return nil, errors.New("factorization lost")
	}
	return b.Backend.Solve(ctx, sys)
}

// modeRecorder collects the assembly mode and time of each step.
type modeRecorder struct {
	modes  []march.AssemblyMode
	times  []float64
	clocks []float64
}

func (r *modeRecorder) OnStep(ev march.StepEvent) {
	r.modes = append(r.modes, ev.Mode)
	r.times = append(r.times, ev.Time)
	r.clocks = append(r.clocks, ev.Clock)
}

func tutorialBackend() *heat.Backend {
	bc := heat.NewBCTypes()
	bc.AddEssential(heat.MarkerGround)
	bc.AddNatural(heat.MarkerAir)
	mesh := heat.DefaultMesh()
	b, err := heat.NewBackend(mesh, bc, heat.Options{
		Material: heat.DefaultMaterial(),
		Exterior: heat.Exterior{Base: 10, Amplitude: 10, Period: 18000},
		Tau:      300,
		Theta:    1,
	})
	Expect(err).NotTo(HaveOccurred())
	return b
}

func filesIn(dir string) []string {
	entries, err := os.ReadDir(dir)
	Expect(err).NotTo(HaveOccurred())
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

var _ = Describe("Driver", func() {
	var (
		dir      string
		store    *checkpoint.FileStore
		writer   *checkpoint.Writer
		recorder *modeRecorder
		cfg      march.Config
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		store = checkpoint.NewFileStore(dir)
		writer = checkpoint.NewWriter(store)
		recorder = &modeRecorder{}
		cfg = march.Config{FinalTime: 18000, Tau: 300, OutputFrequency: 20}
	})

	Context("with the tutorial parameters", func() {
		var result *march.Result

		BeforeEach(func() {
			d := march.New(tutorialBackend(), writer, cfg, march.WithObserver(recorder))
			var err error
			result, err = d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
		})

		It("takes sixty steps", func() {
			Expect(result.Steps).To(Equal(60))
			Expect(result.FinalTime).To(BeNumerically("~", 18000, 1e-6))
		})

		It("assembles the matrix once", func() {
			Expect(result.Modes).To(HaveLen(60))
			Expect(result.Modes[0]).To(Equal(march.Full))
			for _, m := range result.Modes[1:] {
				Expect(m).To(Equal(march.RHSOnly))
			}
			Expect(recorder.modes).To(Equal(result.Modes))
		})

		It("assembles step k at (k-1)*tau", func() {
			for i, t := range recorder.times {
				Expect(t).To(BeNumerically("~", float64(i)*300, 1e-9))
				Expect(recorder.clocks[i]).To(BeNumerically("~", float64(i+1)*300, 1e-9))
			}
		})

		It("checkpoints at steps 20, 40 and 60", func() {
			steps := make([]int, 0, len(result.Records))
			for _, r := range result.Records {
				steps = append(steps, r.Step)
			}
			Expect(steps).To(Equal([]int{20, 40, 60}))
			Expect(steps).To(Equal(checkpoint.Schedule(60, 20)))
		})

		It("writes exactly the six checkpoint files", func() {
			Expect(filesIn(dir)).To(ConsistOf(
				"tsln_20.lin", "tsln_20.dat",
				"tsln_40.lin", "tsln_40.dat",
				"tsln_60.lin", "tsln_60.dat",
			))
		})

		It("writes solutions that read back at the checkpoint time", func() {
			f, err := os.Open(filepath.Join(dir, "tsln_40.dat"))
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()

			field, err := heat.ReadSolution(f)
			Expect(err).NotTo(HaveOccurred())
			Expect(field.Step).To(Equal(40))
			Expect(field.Time).To(BeNumerically("~", 12000, 1e-6))
			Expect(field.Data).To(HaveLen(field.Mesh.Nodes()))
		})
	})

	Context("when run twice with the same inputs", func() {
		It("produces the same checkpoint names", func() {
			other := GinkgoT().TempDir()
			for _, d := range []string{dir, other} {
				w := checkpoint.NewWriter(checkpoint.NewFileStore(d))
				_, err := march.New(tutorialBackend(), w, cfg).Run(context.Background())
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(filesIn(other)).To(Equal(filesIn(dir)))
			Expect(filesIn(dir)).To(ConsistOf(checkpoint.Names(checkpoint.Schedule(60, 20))))
		})
	})

	Context("when the solve of step 25 fails", func() {
		It("stops before step 26 and keeps earlier checkpoints", func() {
			b := &flakyBackend{Backend: tutorialBackend(), failAt: 25}
			d := march.New(b, writer, cfg, march.WithObserver(recorder))

			result, err := d.Run(context.Background())
			Expect(err).To(MatchError(march.ErrSolverFailure))

			var sf *march.SolverFailure
			Expect(errors.As(err, &sf)).To(BeTrue())
			Expect(sf.Step).To(Equal(25))
			Expect(sf.Stage).To(Equal(march.StageSolve))

			Expect(result.Steps).To(Equal(24))
			Expect(result.Records).To(HaveLen(1))
			Expect(filesIn(dir)).To(ConsistOf("tsln_20.lin", "tsln_20.dat"))
		})
	})

	Context("when the cadence exceeds the step count", func() {
		It("writes no checkpoints", func() {
			cfg.OutputFrequency = 100
			d := march.New(tutorialBackend(), writer, cfg)

			result, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Records).To(BeEmpty())
			Expect(filesIn(dir)).To(BeEmpty())
		})
	})

	Context("when stepping by hand", func() {
		It("refuses to step a finished state", func() {
			cfg.FinalTime = 600
			cfg.OutputFrequency = 1
			d := march.New(tutorialBackend(), writer, cfg)

			st, err := d.Start()
			Expect(err).NotTo(HaveOccurred())
			for !st.Done() {
				st, _, err = d.Step(context.Background(), st)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(st.Phase).To(Equal(march.Finished))
			Expect(st.Clock).To(BeNumerically("~", 600, 1e-9))

			_, _, err = d.Step(context.Background(), st)
			Expect(err).To(MatchError(march.ErrFinished))
		})
	})
})
