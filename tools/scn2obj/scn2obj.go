package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/quolt/axoscn_browser/axo"
	"github.com/quolt/axoscn_browser/config"
	"github.com/quolt/axoscn_browser/mdl"
	"github.com/quolt/axoscn_browser/pack"
	"github.com/quolt/axoscn_browser/scn"
	"github.com/quolt/axoscn_browser/utils"
)

var nameGen utils.RandomNameGenerator

func decode(path string) ([]*mdl.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch pack.KindOf(path) {
	case pack.KindAxo:
		doc, err := axo.Decode(data)
		if err != nil {
			return nil, err
		}
		return doc.Models, nil
	default:
		doc, err := scn.Decode(data)
		if err != nil {
			return nil, err
		}
		return doc.Models, nil
	}
}

func convert(path, outDir string) error {
	models, err := decode(path)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		log.Printf("%s: no models", path)
		return nil
	}
	// duplicate container names happen across LOD groups
	seen := make(map[string]bool)
	for _, m := range models {
		if m.Name == "" || seen[m.Name] {
			m.Name = m.Name + "_" + nameGen.RandomName()
		}
		seen[m.Name] = true
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	objPath := filepath.Join(outDir, base+".obj")
	mtlPath := filepath.Join(outDir, base+".mtl")

	objFile, err := os.Create(objPath)
	if err != nil {
		return err
	}
	defer objFile.Close()
	if err := mdl.ExportObjAll(objFile, models, base+".mtl"); err != nil {
		return err
	}

	mtlFile, err := os.Create(mtlPath)
	if err != nil {
		return err
	}
	defer mtlFile.Close()
	if err := mdl.ExportMtlAll(mtlFile, models); err != nil {
		return err
	}

	log.Printf("%s: %d models -> %s", path, len(models), objPath)
	return nil
}

func main() {
	var in, out string
	var heuristics bool
	flag.StringVar(&in, "in", "", "Input axo/scn file or directory")
	flag.StringVar(&out, "out", "obj_out", "Output directory")
	flag.BoolVar(&heuristics, "heuristics", false, "Enable windowed/scan fallbacks")
	flag.Parse()

	if in == "" {
		flag.PrintDefaults()
		return
	}
	config.SetHeuristics(heuristics)

	if err := os.MkdirAll(out, 0755); err != nil {
		log.Fatal(err)
	}

	st, err := os.Stat(in)
	if err != nil {
		log.Fatal(err)
	}
	if !st.IsDir() {
		if err := convert(in, out); err != nil {
			log.Fatal(err)
		}
		return
	}

	entries, err := os.ReadDir(in)
	if err != nil {
		log.Fatal(err)
	}
	failed := 0
	for _, e := range entries {
		if e.IsDir() || pack.KindOf(e.Name()) == "" {
			continue
		}
		if err := convert(filepath.Join(in, e.Name()), out); err != nil {
			log.Printf("%s: %v", e.Name(), err)
			failed++
		}
	}
	if failed != 0 {
		log.Printf("%d files failed", failed)
		os.Exit(1)
	}
}
