package main

import (
	"flag"
	"log"

	"github.com/quolt/axoscn_browser/config"
	"github.com/quolt/axoscn_browser/pack"
	"github.com/quolt/axoscn_browser/web"
)

func main() {
	var addr, dir, cfgPath, encoding string
	var heuristics bool
	flag.StringVar(&addr, "i", ":8000", "Address of server")
	flag.StringVar(&dir, "dir", "", "Path to directory with axo/scn files")
	flag.StringVar(&cfgPath, "config", "", "Path to yaml settings file")
	flag.StringVar(&encoding, "encoding", "", "Charmap used for name strings (see -listencodings)")
	flag.BoolVar(&heuristics, "heuristics", false, "Enable windowed/scan fallbacks for subset and mesh location")
	listEncodings := flag.Bool("listencodings", false, "Print available encodings and exit")
	flag.Parse()

	if *listEncodings {
		for _, name := range config.ListEncodings() {
			log.Println(name)
		}
		return
	}

	if cfgPath != "" {
		s, err := config.LoadSettings(cfgPath)
		if err != nil {
			log.Fatal(err)
		}
		if err := s.Apply(); err != nil {
			log.Fatal(err)
		}
		if addr == ":8000" && s.Addr != "" {
			addr = s.Addr
		}
		if dir == "" {
			dir = s.Dir
		}
	}
	if heuristics {
		config.SetHeuristics(true)
	}
	if encoding != "" {
		if err := config.SetEncoding(encoding); err != nil {
			log.Fatal(err)
		}
	}

	if dir == "" {
		flag.PrintDefaults()
		return
	}

	p, err := pack.MountDir(dir)
	if err != nil {
		log.Fatal(err)
	}

	if err := web.StartServer(addr, p, "web"); err != nil {
		log.Fatal(err)
	}
}
