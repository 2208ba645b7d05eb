// Command flow4d drives the marching-cubes, centerline, graph-cut and
// measuring-plane pipeline from the shell: one subcommand per pipeline
// stage, `flag.FlagSet` per subcommand dispatched on os.Args[1], matching
// the teacher's plain `flag` + `log.Fatal` CLI texture (examples/spiral,
// examples/hollowing_stl) rather than a cobra/viper-style framework.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cmrcore/flow4d/pkg/centerline"
	"github.com/cmrcore/flow4d/pkg/ioformat"
	"github.com/cmrcore/flow4d/pkg/march"
	"github.com/cmrcore/flow4d/pkg/plane"
	"github.com/cmrcore/flow4d/pkg/workerpool"
)

// Exit codes per spec.md §6.
const (
	exitUnreadableInput      = 1
	exitEmptyTargetSet       = 2
	exitGraphCutNotConverged = 3
	exitIOFailure            = 4
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <command> [flags]", os.Args[0])
	}

	var err error
	switch os.Args[1] {
	case "extract-mesh":
		err = runExtractMesh(os.Args[2:])
	case "extract-centerlines":
		err = runExtractCenterlines(os.Args[2:])
	case "graphcut":
		err = runGraphCut(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "export-mesh3mf":
		err = runExportMesh3MF(os.Args[2:])
	case "export-line-dxf":
		err = runExportLineDXF(os.Args[2:])
	case "export-plane-svg":
		err = runExportPlaneSVG(os.Args[2:])
	case "export-plane-heatmap":
		err = runExportPlaneHeatmap(os.Args[2:])
	default:
		log.Fatalf("unknown command %q", os.Args[1])
	}

	if err == nil {
		return
	}
	if code, ok := err.(exitError); ok {
		log.Printf("error: %s", code.err)
		os.Exit(code.code)
	}
	log.Fatalf("error: %s", err)
}

// exitError pairs an error with the spec.md §6 exit code it maps to.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string { return e.err.Error() }

func fail(code int, format string, args ...interface{}) exitError {
	return exitError{code: code, err: fmt.Errorf(format, args...)}
}

func runExtractMesh(args []string) (err error) {
	fs := flag.NewFlagSet("extract-mesh", flag.ExitOnError)
	input := fs.String("input", "", "raw segmentation image (ioformat.WriteScalar3DImage layout)")
	iso := fs.Float64("iso", 0.5, "iso-surface value")
	output := fs.String("output", "out.mesh", "output .mesh path")
	fs.Parse(args)

	img, readErr := ioformat.ReadScalar3DImage(*input)
	if readErr != nil {
		return fail(exitUnreadableInput, "reading %s: %w", *input, readErr)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fail(exitUnreadableInput, "%s: %v", march.ErrInputDimensionMismatch, r)
		}
	}()

	pool := workerpool.New(0)
	defer pool.Close()
	m := march.Apply(img, *iso, pool)

	if writeErr := ioformat.WriteMeshFile(*output, m); writeErr != nil {
		return fail(exitIOFailure, "writing %s: %w", *output, ioformat.WrapIOFailure(writeErr))
	}
	return nil
}

func runExtractCenterlines(args []string) error {
	fs := flag.NewFlagSet("extract-centerlines", flag.ExitOnError)
	meshPath := fs.String("mesh", "", "input .mesh path")
	segPath := fs.String("seg", "", "raw segmentation image")
	seed := fs.Int("seed", 0, "seed vertex index")
	targets := fs.String("targets", "", "comma-separated target vertex indices")
	upscale := fs.Int("upscale", 0, "image upscale factor (0 = default)")
	penaltyExp := fs.Int("penalty-exp", 0, "distance penalty exponent (0 = default)")
	smoothIter := fs.Int("smooth-iter", 0, "Taubin smoothing iterations (0 = default)")
	smoothKernel := fs.Int("smooth-kernel", 0, "Taubin smoothing kernel size (0 = default)")
	smoothRelax := fs.Float64("smooth-relax", 0, "Taubin smoothing relaxation (0 = default)")
	outputDir := fs.String("output-dir", ".", "directory to write line_<i>.line files to")
	fs.Parse(args)

	m, err := ioformat.ReadMeshFile(*meshPath)
	if err != nil {
		return fail(exitUnreadableInput, "reading %s: %w", *meshPath, err)
	}
	seg, err := ioformat.ReadScalar3DImage(*segPath)
	if err != nil {
		return fail(exitUnreadableInput, "reading %s: %w", *segPath, err)
	}

	targetIdx, err := parseIntList(*targets)
	if err != nil {
		return fail(exitUnreadableInput, "parsing --targets: %w", err)
	}
	if len(targetIdx) == 0 {
		return fail(exitEmptyTargetSet, "%w", centerline.ErrEmptyTargetSet)
	}

	ex := centerline.NewExtractor()
	if *upscale > 0 {
		ex.ImageUpscale = *upscale
	}
	if *penaltyExp > 0 {
		ex.DistancePenaltyExponent = *penaltyExp
	}
	if *smoothIter > 0 {
		ex.NumSmoothIterations = *smoothIter
	}
	if *smoothKernel > 0 {
		ex.SmoothKernelSize = *smoothKernel
	}
	if *smoothRelax > 0 {
		ex.SmoothRelaxation = *smoothRelax
	}

	pool := workerpool.New(0)
	defer pool.Close()
	lines, ok := ex.Extract(m, seg, *seed, targetIdx, pool)
	if !ok {
		return fail(exitEmptyTargetSet, "%w", centerline.ErrEmptyTargetSet)
	}

	for i, line := range lines {
		path := filepath.Join(*outputDir, fmt.Sprintf("line_%d.line", i))
		if err := ioformat.WriteLineFile(path, line); err != nil {
			return fail(exitIOFailure, "writing %s: %w", path, ioformat.WrapIOFailure(err))
		}
	}
	return nil
}

func runGraphCut(args []string) error {
	fs := flag.NewFlagSet("graphcut", flag.ExitOnError)
	capFile := fs.String("cap-file", "", "graph-cut capacity file")
	output := fs.String("output", "out.cut", "output path: one 'source'/'sink' line per node")
	fs.Parse(args)

	g, err := ioformat.ReadGraphCutCapFile(*capFile)
	if err != nil {
		return fail(exitUnreadableInput, "reading %s: %w", *capFile, err)
	}

	g.Run()
	if err := g.CheckInvariants(); err != nil {
		return fail(exitGraphCutNotConverged, "%w", err)
	}

	var sb strings.Builder
	for i := 0; i < g.NumNodes(); i++ {
		if g.IsSourceSide(i) {
			sb.WriteString("source\n")
		} else {
			sb.WriteString("sink\n")
		}
	}
	if err := os.WriteFile(*output, []byte(sb.String()), 0o644); err != nil {
		return fail(exitIOFailure, "writing %s: %w", *output, ioformat.WrapIOFailure(err))
	}
	return nil
}

// planeArgs are the flags shared by stats and the plane export subcommands:
// which centerline point to build the measuring plane at, plus the flow
// field and segmentation to sample.
type planeArgs struct {
	linesDir  string
	lineIdx   int
	pointIdx  int
	flowPath  string
	segPath   string
	nx, ny    int
	spacingXY float64
}

func registerPlaneFlags(fs *flag.FlagSet) *planeArgs {
	a := &planeArgs{}
	fs.StringVar(&a.linesDir, "lines-dir", ".", "directory containing line_<i>.line files")
	fs.IntVar(&a.lineIdx, "line-idx", 0, "which extracted centerline to use")
	fs.IntVar(&a.pointIdx, "point-idx", 0, "which point along the centerline to center the plane at")
	fs.StringVar(&a.flowPath, "flow", "", "raw FlowImage4D path")
	fs.StringVar(&a.segPath, "seg", "", "raw segmentation image path")
	fs.IntVar(&a.nx, "nx", 32, "plane grid width")
	fs.IntVar(&a.ny, "ny", 32, "plane grid height")
	fs.Float64Var(&a.spacingXY, "spacing", 1.0, "plane cell spacing, mm")
	return a
}

func buildPlaneAndStatistics(a *planeArgs) (*plane.Plane, *plane.Statistics, error) {
	linePath := filepath.Join(a.linesDir, fmt.Sprintf("line_%d.line", a.lineIdx))
	line, err := ioformat.ReadLineFile(linePath)
	if err != nil {
		return nil, nil, fail(exitUnreadableInput, "reading %s: %w", linePath, err)
	}
	if a.pointIdx < 0 || a.pointIdx >= line.NumPoints() {
		return nil, nil, fail(exitUnreadableInput, "point-idx %d out of range [0,%d)", a.pointIdx, line.NumPoints())
	}

	flow, err := ioformat.ReadFlowImage4D(a.flowPath)
	if err != nil {
		return nil, nil, fail(exitUnreadableInput, "reading %s: %w", a.flowPath, err)
	}
	seg, err := ioformat.ReadScalar3DImage(a.segPath)
	if err != nil {
		return nil, nil, fail(exitUnreadableInput, "reading %s: %w", a.segPath, err)
	}

	center := line.Points[a.pointIdx]
	tangent := line.Frames[a.pointIdx].Col[2]

	p := plane.New(center, tangent, a.nx, a.ny, flow.Nt, a.spacingXY, flow.DtMs)

	pool := workerpool.New(0)
	defer pool.Close()
	p.SampleFlow(flow, pool)
	p.SampleMaskFromSegmentation(seg, pool)
	st := p.ComputeStatistics(pool)
	return p, st, nil
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	a := registerPlaneFlags(fs)
	output := fs.String("output", "", "optional path to write a text summary to; empty prints to stdout")
	fs.Parse(args)

	_, st, err := buildPlaneAndStatistics(a)
	if err != nil {
		return err
	}

	summary := fmt.Sprintf(
		"forward_flow_volume_ml=%.4f\nbackward_flow_volume_ml=%.4f\nnet_flow_volume_ml=%.4f\n"+
			"percentaged_back_flow=%.2f\ncardiac_output_l_per_min=%.4f\nnormal_is_aligned=%t\n",
		st.ForwardFlowVolumeML, st.BackwardFlowVolumeML, st.NetFlowVolumeML,
		st.PercentagedBackFlowVolume, st.CardiacOutputLPerMin, st.NormalIsAligned)

	if *output == "" {
		fmt.Print(summary)
		return nil
	}
	if err := os.WriteFile(*output, []byte(summary), 0o644); err != nil {
		return fail(exitIOFailure, "writing %s: %w", *output, ioformat.WrapIOFailure(err))
	}
	return nil
}

func runExportMesh3MF(args []string) error {
	fs := flag.NewFlagSet("export-mesh3mf", flag.ExitOnError)
	meshPath := fs.String("mesh", "", "input .mesh path")
	output := fs.String("output", "out.3mf", "output 3MF path")
	fs.Parse(args)

	m, err := ioformat.ReadMeshFile(*meshPath)
	if err != nil {
		return fail(exitUnreadableInput, "reading %s: %w", *meshPath, err)
	}
	if err := ioformat.WriteMesh3MF(*output, m); err != nil {
		return fail(exitIOFailure, "writing %s: %w", *output, ioformat.WrapIOFailure(err))
	}
	return nil
}

func runExportLineDXF(args []string) error {
	fs := flag.NewFlagSet("export-line-dxf", flag.ExitOnError)
	linesDir := fs.String("lines-dir", ".", "directory containing line_<i>.line files")
	count := fs.Int("count", 1, "number of line_<i>.line files to read, starting at 0")
	output := fs.String("output", "out.dxf", "output DXF path")
	fs.Parse(args)

	lines := make([]centerline.Line3D, 0, *count)
	for i := 0; i < *count; i++ {
		path := filepath.Join(*linesDir, fmt.Sprintf("line_%d.line", i))
		line, err := ioformat.ReadLineFile(path)
		if err != nil {
			return fail(exitUnreadableInput, "reading %s: %w", path, err)
		}
		lines = append(lines, line)
	}

	if err := ioformat.WriteCenterlineDXF(*output, lines); err != nil {
		return fail(exitIOFailure, "writing %s: %w", *output, ioformat.WrapIOFailure(err))
	}
	return nil
}

func runExportPlaneSVG(args []string) error {
	fs := flag.NewFlagSet("export-plane-svg", flag.ExitOnError)
	a := registerPlaneFlags(fs)
	output := fs.String("output", "out.svg", "output SVG path")
	fs.Parse(args)

	_, st, err := buildPlaneAndStatistics(a)
	if err != nil {
		return err
	}
	if err := ioformat.WritePlaneSVG(*output, st); err != nil {
		return fail(exitIOFailure, "writing %s: %w", *output, ioformat.WrapIOFailure(err))
	}
	return nil
}

func runExportPlaneHeatmap(args []string) error {
	fs := flag.NewFlagSet("export-plane-heatmap", flag.ExitOnError)
	a := registerPlaneFlags(fs)
	timestep := fs.Int("t", 0, "timestep to rasterize")
	output := fs.String("output", "out.png", "output PNG path")
	fs.Parse(args)

	p, st, err := buildPlaneAndStatistics(a)
	if err != nil {
		return err
	}
	if *timestep < 0 || *timestep >= p.Nt {
		return fail(exitUnreadableInput, "t %d out of range [0,%d)", *timestep, p.Nt)
	}
	if err := ioformat.WritePlaneHeatmap(*output, p, st, *timestep); err != nil {
		return fail(exitIOFailure, "writing %s: %w", *output, ioformat.WrapIOFailure(err))
	}
	return nil
}

func parseIntList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
