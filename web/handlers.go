package web

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/quolt/axoscn_browser/axo"
	"github.com/quolt/axoscn_browser/mdl"
	"github.com/quolt/axoscn_browser/pack"
	"github.com/quolt/axoscn_browser/scn"
	"github.com/quolt/axoscn_browser/status"
	"github.com/quolt/axoscn_browser/utils"
	"github.com/quolt/axoscn_browser/webutils"
)

// Decoded is one pack file's document, dispatched by extension.
type Decoded struct {
	Kind string
	Axo  *axo.Document `json:",omitempty"`
	Scn  *scn.Document `json:",omitempty"`
}

func (d *Decoded) Models() []*mdl.Model {
	switch d.Kind {
	case pack.KindAxo:
		return d.Axo.Models
	case pack.KindScn:
		return d.Scn.Models
	}
	return nil
}

func decodePackFile(name string) (*Decoded, error) {
	data, err := ServerPack.Read(name)
	if err != nil {
		return nil, err
	}
	d := &Decoded{Kind: pack.KindOf(name)}
	switch d.Kind {
	case pack.KindAxo:
		d.Axo, err = axo.Decode(data)
	case pack.KindScn:
		d.Scn, err = scn.Decode(data)
	default:
		err = errors.Errorf("Don't know how to decode %q", name)
	}
	if err != nil {
		status.Error("Failed to decode %q: %v", name, err)
		return nil, errors.Wrapf(err, "Failed to decode %q", name)
	}
	status.Info("Decoded %q: %d models", name, len(d.Models()))
	return d, nil
}

func HandlerAjaxPack(w http.ResponseWriter, r *http.Request) {
	files, err := ServerPack.List()
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, files)
}

func HandlerAjaxPackFile(w http.ResponseWriter, r *http.Request) {
	d, err := decodePackFile(mux.Vars(r)["file"])
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, d)
}

func HandlerDumpPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	data, err := ServerPack.Read(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, bytes.NewReader(data), file)
}

func HandlerSpewPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	d, err := decodePackFile(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, strings.NewReader(utils.SDump(d)), file+".txt")
}

func baseName(file string) string {
	if i := strings.LastIndexByte(file, '.'); i > 0 {
		return file[:i]
	}
	return file
}

func HandlerExportObj(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	d, err := decodePackFile(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := mdl.ExportObjAll(&buf, d.Models(), baseName(file)+".mtl"); err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, &buf, baseName(file)+".obj")
}

func HandlerExportMtl(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	d, err := decodePackFile(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := mdl.ExportMtlAll(&buf, d.Models()); err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, &buf, baseName(file)+".mtl")
}

func HandlerExportGlb(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	d, err := decodePackFile(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := mdl.ExportGLTFBinary(&buf, d.Models()); err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, &buf, baseName(file)+".glb")
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 2048,
}

func HandlerWebsocketStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Failed to upgrade websocket"))
		return
	}
	status.NewClient(conn)
}
