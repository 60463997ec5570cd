package models

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type SlotKind string

const (
	SlotImage    SlotKind = "image"
	SlotDocument SlotKind = "document"
)

const (
	MaxImageBytes    = 5 << 20
	MaxDocumentBytes = 10 << 20
)

type DocumentSlot struct {
	Name      string   `json:"name"`
	Column    string   `json:"column"`
	Label     string   `json:"label"`
	Kind      SlotKind `json:"kind"`
	Mandatory bool     `json:"mandatory"`
}

// DocumentSlots lists the 12 attachment slots in upload order.
var DocumentSlots = []DocumentSlot{
	{Name: "banner", Column: "banner_url", Label: "Banner Principal", Kind: SlotImage},
	{Name: "foto1", Column: "foto1_url", Label: "Foto 1", Kind: SlotImage},
	{Name: "foto2", Column: "foto2_url", Label: "Foto 2", Kind: SlotImage},
	{Name: "foto3", Column: "foto3_url", Label: "Foto 3", Kind: SlotImage},
	{Name: "requerimento_autorizacao", Column: "requerimento_autorizacao_url", Label: "Requerimento de Autorização", Kind: SlotDocument, Mandatory: true},
	{Name: "projeto_evento", Column: "projeto_evento_url", Label: "Projeto do Evento", Kind: SlotDocument, Mandatory: true},
	{Name: "planta_local", Column: "planta_local_url", Label: "Planta do Local", Kind: SlotDocument, Mandatory: true},
	{Name: "avcb_bombeiros", Column: "avcb_bombeiros_url", Label: "AVCB dos Bombeiros", Kind: SlotDocument, Mandatory: true},
	{Name: "apolice_seguro", Column: "apolice_seguro_url", Label: "Apólice de Seguro", Kind: SlotDocument, Mandatory: true},
	{Name: "plano_seguranca", Column: "plano_seguranca_url", Label: "Plano de Segurança", Kind: SlotDocument, Mandatory: true},
	{Name: "alvara_funcionamento", Column: "alvara_funcionamento_url", Label: "Alvará de Funcionamento", Kind: SlotDocument},
	{Name: "autorizacao_sonora_doc", Column: "autorizacao_sonora_doc_url", Label: "Autorização Sonora", Kind: SlotDocument},
}

const noiseDocSlot = "autorizacao_sonora_doc"

func LookupSlot(name string) (DocumentSlot, bool) {
	for _, s := range DocumentSlots {
		if s.Name == name {
			return s, true
		}
	}
	return DocumentSlot{}, false
}

func (e *Event) slotField(name string) *string {
	switch name {
	case "banner":
		return &e.BannerURL
	case "foto1":
		return &e.Foto1URL
	case "foto2":
		return &e.Foto2URL
	case "foto3":
		return &e.Foto3URL
	case "requerimento_autorizacao":
		return &e.RequerimentoAutorizacaoURL
	case "projeto_evento":
		return &e.ProjetoEventoURL
	case "planta_local":
		return &e.PlantaLocalURL
	case "avcb_bombeiros":
		return &e.AvcbBombeirosURL
	case "apolice_seguro":
		return &e.ApoliceSeguroURL
	case "plano_seguranca":
		return &e.PlanoSegurancaURL
	case "alvara_funcionamento":
		return &e.AlvaraFuncionamentoURL
	case "autorizacao_sonora_doc":
		return &e.AutorizacaoSonoraDocURL
	}
	return nil
}

func (e *Event) SlotURL(name string) string {
	if f := e.slotField(name); f != nil {
		return *f
	}
	return ""
}

func (e *Event) SetSlotURL(name, url string) error {
	f := e.slotField(name)
	if f == nil {
		return fmt.Errorf("unknown document slot %q", name)
	}
	*f = url
	return nil
}

// RequiredSlots returns the slots that must be filled before approval. The
// noise-permit document only counts when the event asks for the permit.
func (e *Event) RequiredSlots() []DocumentSlot {
	var out []DocumentSlot
	for _, s := range DocumentSlots {
		if s.Mandatory || (s.Name == noiseDocSlot && e.AutorizacaoSonora) {
			out = append(out, s)
		}
	}
	return out
}

type SlotState struct {
	DocumentSlot
	URL      string `json:"url,omitempty"`
	Required bool   `json:"required"`
}

type DocumentCompleteness struct {
	Present int         `json:"present"`
	Total   int         `json:"total"`
	Missing []string    `json:"missing"`
	Slots   []SlotState `json:"slots"`
}

func (e *Event) Completeness() DocumentCompleteness {
	required := map[string]bool{}
	for _, s := range e.RequiredSlots() {
		required[s.Name] = true
	}
	c := DocumentCompleteness{Total: len(DocumentSlots), Missing: []string{}}
	for _, s := range DocumentSlots {
		url := e.SlotURL(s.Name)
		if url != "" {
			c.Present++
		} else if required[s.Name] {
			c.Missing = append(c.Missing, s.Name)
		}
		c.Slots = append(c.Slots, SlotState{DocumentSlot: s, URL: url, Required: required[s.Name]})
	}
	return c
}

// FileUpload is one attachment of a submission, already read into memory.
type FileUpload struct {
	Slot     string
	Filename string
	Data     []byte
}

func (f FileUpload) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Filename)), ".")
}

// documentMimes pairs each accepted extension with the sniffed types it may
// carry. Word files without recognisable parts sniff as their container format.
var documentMimes = map[string][]string{
	"pdf":  {"application/pdf"},
	"doc":  {"application/msword", "application/x-ole-storage"},
	"docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
}

// CheckPolicy enforces type and size limits for the slot. It runs before any
// network call.
func (f FileUpload) CheckPolicy() error {
	slot, ok := LookupSlot(f.Slot)
	if !ok {
		return NewValidationError(f.Slot, "unknown document slot")
	}
	if len(f.Data) == 0 {
		return NewValidationError(f.Slot, "file is empty")
	}

	detected := mimetype.Detect(f.Data)
	switch slot.Kind {
	case SlotImage:
		if len(f.Data) > MaxImageBytes {
			return NewValidationError(f.Slot, "image exceeds 5MB")
		}
		if !strings.HasPrefix(detected.String(), "image/") {
			return NewValidationError(f.Slot, "file must be an image")
		}
	case SlotDocument:
		if len(f.Data) > MaxDocumentBytes {
			return NewValidationError(f.Slot, "document exceeds 10MB")
		}
		allowed, ok := documentMimes[f.Extension()]
		if !ok || !mimetype.EqualsAny(detected.String(), allowed...) {
			return NewValidationError(f.Slot, "document must be PDF, DOC or DOCX")
		}
	}
	return nil
}

// DetectedType is the sniffed content type sent to the object store.
func (f FileUpload) DetectedType() string {
	return mimetype.Detect(f.Data).String()
}
