// Package main provides the Cinder ML Framework CLI.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cinder-ml/cinder/internal/backend/cpu"
	"github.com/cinder-ml/cinder/internal/nn"
	"github.com/cinder-ml/cinder/internal/optim"
	"github.com/cinder-ml/cinder/internal/serialization"
	"github.com/cinder-ml/cinder/internal/tensor"
)

const version = "v0.3.1"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("Cinder ML Framework %s\n", version)
	case "demo":
		if err := runDemo(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "demo failed: %v\n", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Cinder ML Framework - Gradient-Based Optimization for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  demo       Fit a toy least-squares problem with RMSprop")
}

// runDemo minimizes ||w - target||^2 with RMSprop and optionally writes the
// optimizer state to a checkpoint file.
func runDemo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	steps := fs.Int("steps", 500, "Number of optimization steps")
	configPath := fs.String("config", "", "YAML file with per-group hyperparameters")
	checkpoint := fs.String("checkpoint", "", "Write optimizer state to this .cndr file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := optim.DefaultOptions()
	if *configPath != "" {
		file, err := os.Open(*configPath)
		if err != nil {
			return err
		}
		groups, err := optim.LoadOptions(file)
		file.Close()
		if err != nil {
			return err
		}
		opts = groups[0]
	}

	backend := cpu.New()
	w, err := tensor.FromSlice([]float32{0, 0, 0}, tensor.Shape{3}, backend)
	if err != nil {
		return err
	}
	param := nn.NewParameter("w", w)
	target := []float32{1.0, -2.0, 0.5}

	opt, err := optim.NewRMSprop([]*nn.Parameter[*cpu.CPUBackend]{param}, opts, backend)
	if err != nil {
		return err
	}

	fmt.Printf("🔥 Minimizing ||w - %v||² with RMSprop (lr=%g, alpha=%g, engine=%s)\n",
		target, opts.LR, opts.Alpha, opts.Engine)

	for step := 1; step <= *steps; step++ {
		grad, err := tensor.NewRaw(w.Shape(), tensor.Float32, tensor.CPU)
		if err != nil {
			return err
		}
		gd := grad.AsFloat32()
		var loss float32
		for i, wi := range w.Data() {
			diff := wi - target[i]
			gd[i] = 2 * diff
			loss += diff * diff
		}
		param.SetGrad(grad)

		if _, err := opt.Step(nil); err != nil {
			return err
		}
		if step%100 == 0 || step == *steps {
			fmt.Printf("   step %4d  loss %.6f  w %v\n", step, loss, w.Data())
		}
	}

	if *checkpoint != "" {
		if err := serialization.Save(*checkpoint, opt.StateDict(), "RMSprop", nil); err != nil {
			return err
		}
		fmt.Printf("💾 Optimizer state written to %s\n", *checkpoint)
	}
	return nil
}
