package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/yungbote/formationvault-backend/internal/domain/formation"
	"github.com/yungbote/formationvault-backend/internal/domain/vault"
	"github.com/yungbote/formationvault-backend/internal/platform/gcp"
)

func readObject(t *testing.T, bucket gcp.BucketService, key string) []byte {
	t.Helper()
	rc, err := bucket.DownloadFile(context.Background(), gcp.BucketCategoryVault, key)
	if err != nil {
		t.Fatalf("DownloadFile(%q): %v", key, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %q: %v", key, err)
	}
	return b
}

func TestGenerateLLCMembershipRegistryEndToEnd(t *testing.T) {
	h := newHarness(t, nil)
	h.records.records["rec1"] = llcRecord("u1", "c1", "Acme")
	ctx := context.Background()

	res, err := h.gen.Generate(ctx, GenerationRequest{RecordID: "rec1", DocumentKind: "membership-registry", UpdateExternalRecord: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	vaultPath := DeriveVaultPath("u1", "c1", "Acme")
	wantKey := vaultPath + "/formation/Acme-Membership-Registry.docx"
	if res.StorageKey != wantKey {
		t.Fatalf("storage key: want=%q got=%q", wantKey, res.StorageKey)
	}
	if res.Format != "docx" || res.Converted {
		t.Fatalf("format: want docx unconverted, got format=%q converted=%v", res.Format, res.Converted)
	}

	if h.renderer.callCount() != 1 {
		t.Fatalf("render calls: want=1 got=%d", h.renderer.callCount())
	}
	call := h.renderer.calls[0]
	wantTpl := "llc/membership-registry/Membership Registry - 1 Member, 0 Manager.docx"
	if call.TemplatePath != wantTpl {
		t.Fatalf("template: want=%q got=%q", wantTpl, call.TemplatePath)
	}
	members, _ := call.Data["members"].([]formation.Party)
	if len(members) != 1 || members[0].Name != "Jane Doe" || members[0].OwnershipPercent != 100 {
		t.Fatalf("members: %+v", members)
	}

	entry, err := h.ledger.GetDocument(ctx, nil, "u1", "c1", "membership-registry")
	if err != nil || entry == nil {
		t.Fatalf("ledger entry: entry=%v err=%v", entry, err)
	}
	if entry.Status != vault.StatusGenerated || entry.StorageKey != wantKey || entry.Kind != "formation" {
		t.Fatalf("ledger entry: %+v", entry)
	}

	wantURL := "https://app.example.com/api/documents/membership-registry/view?companyId=c1"
	if got, _ := h.records.updated("rec1", "Membership Registry URL"); got != wantURL {
		t.Fatalf("crm view url: want=%q got=%v", wantURL, got)
	}
	if got, _ := h.records.updated("rec1", formation.FieldVaultPath); got != vaultPath {
		t.Fatalf("crm vault path: want=%q got=%v", vaultPath, got)
	}
	if !res.Reconcile.LedgerSynced || !res.Reconcile.ExternalSynced {
		t.Fatalf("reconcile outcome: %+v", res.Reconcile)
	}
}

func TestGenerateIsIdempotentByOverwrite(t *testing.T) {
	h := newHarness(t, nil)
	h.records.records["rec1"] = llcRecord("u1", "c1", "Acme")
	h.renderer.body = func(call int) []byte { return []byte(fmt.Sprintf("PK\x03\x04render-%d", call)) }
	ctx := context.Background()

	first, err := h.gen.Generate(ctx, GenerationRequest{RecordID: "rec1", DocumentKind: "membership-registry"})
	if err != nil {
		t.Fatalf("Generate first: %v", err)
	}
	second, err := h.gen.Generate(ctx, GenerationRequest{RecordID: "rec1", DocumentKind: "membership-registry"})
	if err != nil {
		t.Fatalf("Generate second: %v", err)
	}
	if first.StorageKey != second.StorageKey {
		t.Fatalf("storage key changed: %q vs %q", first.StorageKey, second.StorageKey)
	}
	if got := string(readObject(t, h.bucket, second.StorageKey)); got != "PK\x03\x04render-2" {
		t.Fatalf("stored bytes: want latest render, got=%q", got)
	}
	if n := h.bucket.Writes(gcp.BucketCategoryVault, second.StorageKey); n != 2 {
		t.Fatalf("writes: want=2 got=%d", n)
	}
	docs, err := h.ledger.GetDocumentsForCompany(ctx, nil, "u1", "c1")
	if err != nil || len(docs) != 1 {
		t.Fatalf("ledger entries: want=1 got=%d err=%v", len(docs), err)
	}
}

func TestGenerateConvertsToPDFWhenAvailable(t *testing.T) {
	h := newHarness(t, &stubConverter{out: []byte("%PDF-1.7 converted")})
	h.records.records["rec1"] = llcRecord("u1", "c1", "Acme")
	ctx := context.Background()

	res, err := h.gen.Generate(ctx, GenerationRequest{RecordID: "rec1", DocumentKind: "operating-agreement"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	base := DeriveVaultPath("u1", "c1", "Acme") + "/agreements/Acme-Operating-Agreement"
	if res.StorageKey != base+".pdf" || res.Format != "pdf" || !res.Converted {
		t.Fatalf("converted result: %+v", res)
	}
	// The original stays next to the converted copy.
	readObject(t, h.bucket, base+".docx")
	entry, _ := h.ledger.GetDocument(ctx, nil, "u1", "c1", "operating-agreement")
	if entry == nil || entry.StorageKey != base+".pdf" {
		t.Fatalf("ledger must point at the final key: %+v", entry)
	}
}

func TestGenerateConversionFailureKeepsOriginal(t *testing.T) {
	h := newHarness(t, &stubConverter{err: errConverterDown})
	h.records.records["rec1"] = llcRecord("u1", "c1", "Acme")

	res, err := h.gen.Generate(context.Background(), GenerationRequest{RecordID: "rec1", DocumentKind: "membership-registry"})
	if err != nil {
		t.Fatalf("Generate must not fail on conversion: %v", err)
	}
	if res.Format != "docx" || res.Converted {
		t.Fatalf("want original docx, got %+v", res)
	}
}

func TestGenerateFailures(t *testing.T) {
	h := newHarness(t, nil)
	h.records.records["rec1"] = llcRecord("u1", "c1", "Acme")
	ctx := context.Background()

	_, err := h.gen.Generate(ctx, GenerationRequest{RecordID: "missing", DocumentKind: "membership-registry"})
	if !errors.Is(err, formation.ErrRecordNotFound) {
		t.Fatalf("missing record: want ErrRecordNotFound got=%v", err)
	}
	_, err = h.gen.Generate(ctx, GenerationRequest{RecordID: "rec1", DocumentKind: "bylaws"})
	if !errors.Is(err, formation.ErrUnsupportedEntityKind) {
		t.Fatalf("corp doc on LLC: want ErrUnsupportedEntityKind got=%v", err)
	}
	_, err = h.gen.Generate(ctx, GenerationRequest{RecordID: "rec1", DocumentKind: "stock-ledger"})
	if !errors.Is(err, formation.ErrUnknownDocumentKind) {
		t.Fatalf("unknown doc: want ErrUnknownDocumentKind got=%v", err)
	}
	if h.renderer.callCount() != 0 {
		t.Fatalf("validation failures must not render, calls=%d", h.renderer.callCount())
	}

	h.renderer.err = &formation.RenderingServiceError{Status: 503, Body: "busy"}
	_, err = h.gen.Generate(ctx, GenerationRequest{RecordID: "rec1", DocumentKind: "membership-registry", UpdateExternalRecord: true})
	var re *formation.RenderingServiceError
	if !errors.As(err, &re) || re.Status != 503 {
		t.Fatalf("render failure: want RenderingServiceError 503 got=%v", err)
	}
	entry, _ := h.ledger.GetDocument(ctx, nil, "u1", "c1", "membership-registry")
	if entry != nil {
		t.Fatalf("render failure must not touch the ledger: %+v", entry)
	}
	if _, ok := h.records.updated("rec1", "Membership Registry URL"); ok {
		t.Fatalf("render failure must not touch the CRM")
	}

	h.renderer.err = errors.New("dial tcp: timeout")
	_, err = h.gen.Generate(ctx, GenerationRequest{RecordID: "rec1", DocumentKind: "membership-registry"})
	if !formation.IsRenderingError(err) {
		t.Fatalf("transport failure must surface as RenderingServiceError, got=%v", err)
	}
}

func TestGenerateUsesServiceUploadWhenNoBytesReturned(t *testing.T) {
	h := newHarness(t, nil)
	h.records.records["rec1"] = llcRecord("u1", "c1", "Acme")
	h.renderer.uploaded = "render-tmp/abc.docx"
	h.renderer.format = "docx"
	if err := h.bucket.UploadFile(dbctxFor(context.Background()), gcp.BucketCategoryVault, "render-tmp/abc.docx", bytesReader("PK\x03\x04uploaded")); err != nil {
		t.Fatalf("seed upload: %v", err)
	}

	res, err := h.gen.Generate(context.Background(), GenerationRequest{RecordID: "rec1", DocumentKind: "membership-registry"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := string(readObject(t, h.bucket, res.StorageKey)); got != "PK\x03\x04uploaded" {
		t.Fatalf("re-uploaded bytes: got=%q", got)
	}
}

func TestGenerateBundleForLLC(t *testing.T) {
	h := newHarness(t, nil)
	h.records.records["rec1"] = llcRecord("u1", "c1", "Acme")

	out, err := h.gen.GenerateBundle(context.Background(), BundleRequest{RecordID: "rec1"})
	if err != nil {
		t.Fatalf("GenerateBundle: %v", err)
	}
	if len(out.Items) != 4 || out.Failed() != 0 {
		t.Fatalf("bundle: items=%d failed=%d %+v", len(out.Items), out.Failed(), out.Items)
	}
	var ss4 *GenerationResult
	for _, it := range out.Items {
		if it.DocumentID == "ss4-application" {
			ss4 = it.Result
		}
	}
	want := DeriveVaultPath("u1", "c1", "Acme") + "/documents/Acme-SS-4-Application.pdf"
	if ss4 == nil || ss4.StorageKey != want {
		t.Fatalf("ss4 key: want=%q got=%+v", want, ss4)
	}
	docs, err := h.ledger.GetDocumentsForCompany(context.Background(), nil, "u1", "c1")
	if err != nil || len(docs) != 4 {
		t.Fatalf("ledger: want 4 entries got=%d err=%v", len(docs), err)
	}
	paths, _ := h.vaults.VaultPaths(context.Background(), "u1")
	if len(paths) != 1 {
		t.Fatalf("vaults: want one per company got=%v", paths)
	}

	_, err = h.gen.GenerateBundle(context.Background(), BundleRequest{RecordID: "rec1", DocumentKinds: []string{"bylaws"}})
	if !errors.Is(err, formation.ErrUnsupportedEntityKind) {
		t.Fatalf("bundle with corp doc: want ErrUnsupportedEntityKind got=%v", err)
	}
}
