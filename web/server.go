package web

import (
	"log"
	"net/http"
	"os"
	"path"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/quolt/axoscn_browser/pack"
)

var ServerPack *pack.Pack

func StartServer(addr string, p *pack.Pack, webPath string) error {
	ServerPack = p

	r := mux.NewRouter()
	r.HandleFunc("/json/pack", HandlerAjaxPack)
	r.HandleFunc("/json/pack/{file}", HandlerAjaxPackFile)
	r.HandleFunc("/dump/pack/{file}", HandlerDumpPackFile)
	r.HandleFunc("/dump/pack/{file}/spew", HandlerSpewPackFile)
	r.HandleFunc("/export/pack/{file}/obj", HandlerExportObj)
	r.HandleFunc("/export/pack/{file}/mtl", HandlerExportMtl)
	r.HandleFunc("/export/pack/{file}/glb", HandlerExportGlb)
	r.HandleFunc("/ws/status", HandlerWebsocketStatus)

	r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(webPath, "data"))))

	h := handlers.RecoveryHandler()(r)
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
