// Package main provides the Fovea detection library CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fovea-ml/fovea/backend/cpu"
	"github.com/fovea-ml/fovea/roialign"
	"github.com/fovea-ml/fovea/tensor"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Fovea %s\n", version)
			return
		case "engines":
			printEngines()
			return
		}
	}

	fmt.Println("Fovea - Region Pooling for Go Detection Pipelines")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  engines    Probe available pooling engines")
}

// printEngines reports each engine's status. The accelerator is probed with
// a minimal pooling call so the report reflects what this build and machine
// can actually run.
func printEngines() {
	engine := cpu.New()
	fmt.Printf("%-8s available\n", engine.Name())

	input, err := tensor.FromSlice(tensor.Shape{1, 1, 2, 2}, []float32{0, 0, 0, 0}, tensor.WebGPU)
	if err != nil {
		fmt.Printf("%-8s probe failed: %v\n", "WebGPU", err)
		return
	}
	rois, err := tensor.FromSlice(tensor.Shape{1, 5}, []float32{0, 0, 0, 1, 1}, tensor.WebGPU)
	if err != nil {
		fmt.Printf("%-8s probe failed: %v\n", "WebGPU", err)
		return
	}

	_, err = roialign.Forward(input, rois, 1, 1, 1, 1, 1)
	switch {
	case err == nil:
		fmt.Printf("%-8s available\n", "WebGPU")
	case errors.Is(err, roialign.ErrNotCompiled):
		fmt.Printf("%-8s not compiled into this build\n", "WebGPU")
	default:
		fmt.Printf("%-8s unavailable: %v\n", "WebGPU", err)
	}
}
