package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"github.com/Faultbox/midgard-engine/internal/assets"
	"github.com/Faultbox/midgard-engine/internal/config"
	"github.com/Faultbox/midgard-engine/internal/engine/animation"
	"github.com/Faultbox/midgard-engine/internal/engine/skeleton"
	"github.com/Faultbox/midgard-engine/internal/engine/terrain"
	"github.com/Faultbox/midgard-engine/internal/game/world"
	"github.com/Faultbox/midgard-engine/pkg/formats"
	"github.com/Faultbox/midgard-engine/pkg/grf"
	"github.com/Faultbox/midgard-engine/pkg/math"
)

func loadRig(path string) (*formats.Rig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading rig")
	}
	return assets.DecodeRig(path, data)
}

func cmdInfo(args []string, out io.Writer) error {
	if len(args) < 1 {
		return errors.New("usage: rigtool info <rig>")
	}
	rig, err := loadRig(args[0])
	if err != nil {
		return err
	}
	sk, err := assets.BuildSkeleton(rig, 0)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Rig:     %s\n", rig.Name)
	fmt.Fprintf(out, "Joints:  %d (palette %d)\n", sk.JointCount(), sk.MaxJoints())
	fmt.Fprintln(out)

	depth := map[int]int{}
	sk.Walk(func(j, parent *skeleton.Joint) {
		d := 0
		if parent != nil {
			d = depth[parent.Index()] + 1
		}
		depth[j.Index()] = d
		p := j.WorldBindTransform().Translation()
		fmt.Fprintf(out, "  %3d %*s%-*s (%.3f, %.3f, %.3f)\n", j.Index(), 2*d, "", 24-2*d, j.Name, p.X, p.Y, p.Z)
	})

	if len(rig.Animations) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Clips:")
		for _, a := range rig.Animations {
			fmt.Fprintf(out, "  %-20s %6.3fs %d channels\n", a.Name, a.Duration, len(a.Channels))
		}
	}
	return nil
}

// posed builds the rig's skeleton and applies the named clip at time.
func posed(args []string) (*skeleton.Skeleton, error) {
	if len(args) < 3 {
		return nil, errors.New("expected <rig> <clip> <time>")
	}
	t, err := strconv.ParseFloat(args[2], 32)
	if err != nil {
		return nil, errors.Wrap(err, "parsing time")
	}

	rig, err := loadRig(args[0])
	if err != nil {
		return nil, err
	}
	sk, err := assets.BuildSkeleton(rig, 0)
	if err != nil {
		return nil, err
	}
	clips, err := assets.BuildAnimations(rig)
	if err != nil {
		return nil, err
	}
	for _, c := range clips {
		if c.Name() == args[1] {
			return sk, animation.Apply(sk, c, float32(t))
		}
	}
	return nil, errors.Wrapf(assets.ErrUnknownAnimation, "%q in rig %q", args[1], rig.Name)
}

func cmdSample(args []string, out io.Writer) error {
	sk, err := posed(args)
	if err != nil {
		return errors.WithMessage(err, "sample")
	}
	sk.Walk(func(j, _ *skeleton.Joint) {
		p := j.AnimatedWorldTransform().Translation()
		fmt.Fprintf(out, "%3d %-24s (%.4f, %.4f, %.4f)\n", j.Index(), j.Name, p.X, p.Y, p.Z)
	})
	return nil
}

func cmdPalette(args []string, out io.Writer) error {
	sk, err := posed(args)
	if err != nil {
		return errors.WithMessage(err, "palette")
	}
	palette := sk.FillPalette(nil)
	for i := range sk.JointCount() {
		m := palette[i]
		fmt.Fprintf(out, "bone %d (%s)\n", i, sk.Joint(i).Name)
		for row := range 4 {
			fmt.Fprintf(out, "  [%9.4f %9.4f %9.4f %9.4f]\n", m[row], m[row+4], m[row+8], m[row+12])
		}
	}
	return nil
}

func cmdDump(args []string, out io.Writer) error {
	if len(args) < 1 {
		return errors.New("usage: rigtool dump <rig>")
	}
	rig, err := loadRig(args[0])
	if err != nil {
		return err
	}
	cfg := spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}
	cfg.Fdump(out, rig)
	return nil
}

func cmdConvert(args []string, out io.Writer) error {
	if len(args) < 2 {
		return errors.New("usage: rigtool convert <model.rsm> <out.rig.yaml>")
	}
	model, err := formats.ParseRSMFile(args[0])
	if err != nil {
		return err
	}
	name := filepath.Base(args[0])
	rig, err := model.Rig(name[:len(name)-len(filepath.Ext(name))])
	if err != nil {
		return err
	}
	data, err := rig.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[1], data, 0644); err != nil {
		return errors.Wrap(err, "writing rig")
	}
	fmt.Fprintf(out, "Converted: %s (%d joints, %d clips)\n", args[1], len(rig.Joints), len(rig.Animations))
	return nil
}

func cmdTerrain(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("terrain", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flags := config.RegisterFlags(fs)
	x := fs.Float64("x", 0, "Viewer X")
	y := fs.Float64("y", 0, "Viewer height above ground")
	z := fs.Float64("z", 0, "Viewer Z")
	size := fs.Float64("size", 0, "Terrain size (0 = config)")
	res := fs.Int("res", 0, "Patch resolution (0 = config)")
	gat := fs.String("gat", "", "GAT file used as heightmap")
	leaves := fs.Bool("leaves", false, "List every leaf")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	if *size > 0 {
		cfg.Terrain.Size = float32(*size)
	}
	if *res > 0 {
		cfg.Terrain.PatchResolution = *res
	}

	m := assets.NewManager()
	defer m.Close()
	if *gat != "" {
		m.AddDir(filepath.Dir(*gat))
		cfg.Terrain.GAT = filepath.Base(*gat)
	}

	w, err := world.Load(m, cfg.Terrain)
	if err != nil {
		return err
	}
	viewer := math.Vec3{X: float32(*x), Z: float32(*z)}
	viewer.Y = w.HeightAt(viewer.X, viewer.Z) + float32(*y)
	stats := w.Update(viewer)

	tc := w.Tree.Config()
	fmt.Fprintf(out, "Terrain: %s, size %g, max depth %d, balance %v\n", w.Name, tc.Size, tc.MaxDepth, tc.Balance)
	fmt.Fprintf(out, "Viewer:  (%.2f, %.2f, %.2f)\n", viewer.X, viewer.Y, viewer.Z)
	fmt.Fprintf(out, "Nodes:   %d\n", stats.Nodes)
	fmt.Fprintf(out, "Leaves:  %d (deepest %d)\n", stats.Leaves, stats.Deepest)
	fmt.Fprintln(out, "Variants:")
	for v := range terrain.MorphVariantCount {
		variant := terrain.MorphVariant(v)
		fmt.Fprintf(out, "  %-18s %6d  %5d triangles\n", variant, stats.Variants[v],
			terrain.PatchTriangleCount(tc.PatchResolution, variant))
	}
	if stats.Unsupported > 0 {
		fmt.Fprintf(out, "Unsupported morph combinations: %d\n", stats.Unsupported)
	}

	if *leaves {
		fmt.Fprintln(out)
		for _, l := range w.Tree.Leaves() {
			n := l.Node
			fmt.Fprintf(out, "  node %5d depth %2d lod %2d at (%.1f, %.1f) size %.1f %s\n",
				l.Index, n.Depth, n.LOD, n.Position.X, n.Position.Y, n.Size, l.Variant)
		}
	}
	return nil
}

func cmdPack(args []string, out io.Writer) error {
	if len(args) < 2 {
		return errors.New("usage: rigtool pack <out.grf> <file>...")
	}
	var files []grf.File
	for _, path := range args[1:] {
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "reading input")
		}
		name := filepath.ToSlash(path)
		if filepath.IsAbs(path) {
			name = filepath.Base(path)
		}
		files = append(files, grf.File{Name: name, Data: data})
	}
	if err := grf.WriteFile(args[0], files); err != nil {
		return err
	}
	fmt.Fprintf(out, "Packed: %s (%d files)\n", args[0], len(files))
	return nil
}

func cmdList(args []string, out io.Writer) error {
	if len(args) < 1 {
		return errors.New("usage: rigtool list <file.grf>")
	}
	archive, err := grf.Open(args[0])
	if err != nil {
		return err
	}
	defer archive.Close()

	for _, f := range archive.List() {
		fmt.Fprintln(out, f)
	}
	return nil
}
