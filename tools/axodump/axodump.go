package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/quolt/axoscn_browser/axo"
	"github.com/quolt/axoscn_browser/utils"
)

func main() {
	verbose := flag.Bool("v", false, "Dump decoded tables and geometry streams")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: axodump [-v] file.axo ...")
		os.Exit(2)
	}

	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatal(err)
		}
		doc, err := axo.Decode(data)
		if err != nil {
			log.Fatalf("%s: %v", path, err)
		}

		fmt.Printf("%s: version %d\n", path, doc.Version)
		for _, c := range doc.Chunks {
			fmt.Printf("  %s\n", c.String())
		}
		fmt.Printf("  textures:%d materials:%d atoms:%d geometry:%d models:%d\n",
			len(doc.Textures), len(doc.Materials), len(doc.Atoms),
			doc.GeometryCount, len(doc.Models))

		if *verbose {
			utils.Dump(doc.Textures)
			utils.Dump(doc.Materials)
			utils.Dump(doc.Atoms)
			for _, m := range doc.Models {
				fmt.Printf("  model %q: %d verts, %d faces, %d subsets\n",
					m.Name, len(m.Mesh.Positions), m.Mesh.FaceCount(), len(m.Mesh.Subsets))
			}
		}
	}
}
