package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/yungbote/formationvault-backend/internal/clients/convert"
	"github.com/yungbote/formationvault-backend/internal/clients/render"
	"github.com/yungbote/formationvault-backend/internal/data/repos"
	"github.com/yungbote/formationvault-backend/internal/domain/formation"
	"github.com/yungbote/formationvault-backend/internal/domain/vault"
	"github.com/yungbote/formationvault-backend/internal/observability"
	"github.com/yungbote/formationvault-backend/internal/platform/dbctx"
	"github.com/yungbote/formationvault-backend/internal/platform/gcp"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

// AllowedSegments are the vault sub-folders documents may be served from.
var AllowedSegments = []string{
	formation.LedgerKindFormation.Segment(),
	formation.LedgerKindAgreement.Segment(),
	formation.LedgerKindTax.Segment(),
}

// DocumentRef names a document either by ledger id or by raw storage key.
type DocumentRef struct {
	DocumentID string
	StorageKey string
}

func (r DocumentRef) String() string {
	if r.DocumentID != "" {
		return r.DocumentID
	}
	return r.StorageKey
}

type ViewRequest struct {
	RequesterID string
	Privileged  bool
	Ref         DocumentRef
	CompanyID   string
	// KeepOriginal skips the docx to pdf conversion on read.
	KeepOriginal bool
}

type DocumentView struct {
	Key         string
	Format      string
	ContentType string
	FileName    string
	Body        []byte
	Converted   bool
}

type SignedUpload struct {
	RequesterID string
	Privileged  bool
	// OwnerID lets staff attach on behalf of the ledger owner.
	OwnerID    string
	CompanyID  string
	DocumentID string
	Body       []byte
}

type DocumentAccessService interface {
	Resolve(ctx context.Context, userID string, ref DocumentRef, scopeCompanyID string, privileged bool) (string, error)
	Authorize(ctx context.Context, userID, key string, privileged bool) bool
	ValidatePath(ctx context.Context, userID, key string, privileged bool) error
	Open(ctx context.Context, req ViewRequest) (*DocumentView, error)
	AttachSigned(ctx context.Context, in SignedUpload) (*vault.LedgerEntry, error)
	ListDocuments(ctx context.Context, userID, companyID string) ([]*vault.LedgerEntry, error)
}

type documentAccessService struct {
	log        *logger.Logger
	ledger     repos.LedgerRepo
	vaults     VaultService
	bucket     gcp.BucketService
	converter  convert.Converter
	auditor    DocumentAuditor
	convertTTL time.Duration
}

func NewDocumentAccessService(
	baseLog *logger.Logger,
	ledger repos.LedgerRepo,
	vaults VaultService,
	bucket gcp.BucketService,
	converter convert.Converter,
	auditor DocumentAuditor,
) DocumentAccessService {
	return &documentAccessService{
		log:        baseLog.With("service", "DocumentAccessService"),
		ledger:     ledger,
		vaults:     vaults,
		bucket:     bucket,
		converter:  converter,
		auditor:    auditor,
		convertTTL: 60 * time.Second,
	}
}

func (s *documentAccessService) Resolve(ctx context.Context, userID string, ref DocumentRef, scopeCompanyID string, privileged bool) (string, error) {
	if key := strings.TrimSpace(ref.StorageKey); key != "" && ref.DocumentID == "" {
		return key, nil
	}
	docID := strings.TrimSpace(ref.DocumentID)
	if docID == "" {
		return "", fmt.Errorf("empty document reference: %w", formation.ErrDocumentNotFound)
	}
	scope := strings.TrimSpace(scopeCompanyID)

	var candidates []*vault.LedgerEntry
	switch {
	case privileged && scope != "":
		entries, err := s.ledger.FindByCompanyDocument(ctx, nil, scope, docID)
		if err != nil {
			return "", fmt.Errorf("ledger lookup: %w", err)
		}
		candidates = entries
	case scope != "":
		entry, err := s.ledger.GetDocument(ctx, nil, userID, scope, docID)
		if err != nil {
			return "", fmt.Errorf("ledger lookup: %w", err)
		}
		if entry != nil {
			candidates = append(candidates, entry)
		}
	default:
		entries, err := s.ledger.GetDocuments(ctx, nil, userID)
		if err != nil {
			return "", fmt.Errorf("ledger lookup: %w", err)
		}
		for _, e := range entries {
			if e.DocumentID == docID {
				candidates = append(candidates, e)
			}
		}
	}
	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("%s: %w", docID, formation.ErrDocumentNotFound)
	case 1:
	default:
		// Same document id under several companies: refuse to guess.
		if scope == "" {
			return "", fmt.Errorf("%s is ambiguous without a company scope: %w", docID, formation.ErrDocumentNotFound)
		}
		s.log.Warn("Company document has several owners; serving most recently updated",
			"document_id", docID,
			"company_id", scope,
			"candidates", len(candidates),
			"user_id", candidates[0].UserID,
			"requester_id", userID,
		)
	}
	key := candidates[0].EffectiveKey()
	if key == "" {
		return "", fmt.Errorf("%s has no artifact: %w", docID, formation.ErrDocumentNotFound)
	}
	return key, nil
}

func (s *documentAccessService) Authorize(ctx context.Context, userID, key string, privileged bool) bool {
	if privileged {
		return true
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(key) == "" {
		return false
	}
	owns, err := s.ledger.OwnsKey(ctx, nil, userID, key)
	if err != nil {
		s.log.Warn("Ownership lookup failed; denying", "error", err, "user_id", userID)
		return false
	}
	return owns
}

func (s *documentAccessService) ValidatePath(ctx context.Context, userID, key string, privileged bool) error {
	if err := ValidateStorageKey(key, AllowedSegments); err != nil {
		return err
	}
	if privileged {
		return nil
	}
	paths, err := s.vaults.VaultPaths(ctx, userID)
	if err != nil {
		s.log.Warn("Vault lookup failed; denying", "error", err, "user_id", userID)
		return fmt.Errorf("vault lookup: %w", formation.ErrInvalidPath)
	}
	for _, p := range paths {
		if p != "" && strings.HasPrefix(key, strings.TrimRight(p, "/")+"/") {
			return nil
		}
	}
	return fmt.Errorf("%q is outside the requester's vaults: %w", key, formation.ErrInvalidPath)
}

// ValidateStorageKey checks the shape of a key: relative, clean, and placed in
// one of the allowed segments below the vault root.
func ValidateStorageKey(key string, allowedSegments []string) error {
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return fmt.Errorf("empty key: %w", formation.ErrInvalidPath)
	case strings.HasPrefix(key, "/"), strings.Contains(key, "\\"), strings.Contains(key, "://"):
		return fmt.Errorf("%q is not a relative key: %w", key, formation.ErrInvalidPath)
	case path.Clean(key) != key:
		return fmt.Errorf("%q is not a clean key: %w", key, formation.ErrInvalidPath)
	}
	parts := strings.Split(key, "/")
	for _, p := range parts {
		if p == ".." || p == "." {
			return fmt.Errorf("%q contains traversal: %w", key, formation.ErrInvalidPath)
		}
	}
	for _, p := range parts[:len(parts)-1] {
		for _, seg := range allowedSegments {
			if p == seg {
				return nil
			}
		}
	}
	return fmt.Errorf("%q is outside the document folders: %w", key, formation.ErrInvalidPath)
}

func (s *documentAccessService) Open(ctx context.Context, req ViewRequest) (*DocumentView, error) {
	ctx, span := observability.StartSpan(ctx, "documents.open")
	view, key, err := s.open(ctx, req)
	observability.EndSpan(span, err)

	row := &vault.AccessLog{
		RequesterID: req.RequesterID,
		Privileged:  req.Privileged,
		CompanyID:   req.CompanyID,
		DocumentRef: req.Ref.String(),
		ResolvedKey: key,
		Outcome:     accessOutcome(err),
	}
	var meta map[string]any
	if view != nil {
		row.Format = view.Format
		meta = map[string]any{"converted": view.Converted, "bytes": len(view.Body)}
	} else if err != nil {
		meta = map[string]any{"error": err.Error()}
	}
	if s.auditor != nil {
		s.auditor.Record(ctx, row, meta)
	}
	return view, err
}

func (s *documentAccessService) open(ctx context.Context, req ViewRequest) (*DocumentView, string, error) {
	key, err := s.Resolve(ctx, req.RequesterID, req.Ref, req.CompanyID, req.Privileged)
	if err != nil {
		return nil, "", err
	}
	if err := s.ValidatePath(ctx, req.RequesterID, key, req.Privileged); err != nil {
		return nil, key, err
	}
	if !s.Authorize(ctx, req.RequesterID, key, req.Privileged) {
		return nil, key, fmt.Errorf("%q: %w", key, formation.ErrUnauthorized)
	}

	rc, err := s.bucket.DownloadFile(ctx, gcp.BucketCategoryVault, key)
	if err != nil {
		if errors.Is(err, gcp.ErrObjectNotFound) {
			return nil, key, fmt.Errorf("%q missing from storage: %w", key, formation.ErrDocumentNotFound)
		}
		return nil, key, fmt.Errorf("download %q: %w", key, err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, key, fmt.Errorf("read %q: %w", key, err)
	}

	format := formatOfKey(key)
	view := &DocumentView{
		Key:         key,
		Format:      format,
		ContentType: render.ContentTypeFor(format),
		FileName:    path.Base(key),
		Body:        body,
	}
	if req.KeepOriginal || format != render.FormatDOCX || s.converter == nil || !s.converter.Supports(format, render.FormatPDF) {
		return view, key, nil
	}
	cctx, cancel := context.WithTimeout(ctx, s.convertTTL)
	defer cancel()
	pdf, err := s.converter.Convert(cctx, convert.Input{FileName: view.FileName, From: format, To: render.FormatPDF, Bytes: body})
	if err != nil {
		s.log.Warn("Conversion on read failed; serving original", "error", err, "key", key)
		return view, key, nil
	}
	view.Body = pdf
	view.Format = render.FormatPDF
	view.ContentType = render.ContentTypeFor(render.FormatPDF)
	view.FileName = swapExt(view.FileName, render.FormatPDF)
	view.Converted = true
	return view, key, nil
}

func (s *documentAccessService) AttachSigned(ctx context.Context, in SignedUpload) (*vault.LedgerEntry, error) {
	owner := in.RequesterID
	if in.Privileged && strings.TrimSpace(in.OwnerID) != "" {
		owner = strings.TrimSpace(in.OwnerID)
	}
	if owner == "" {
		return nil, formation.ErrUnauthorized
	}
	if !bytes.HasPrefix(in.Body, []byte("%PDF-")) {
		return nil, fmt.Errorf("signed artifact must be a PDF: %w", formation.ErrInvalidArtifact)
	}
	entry, err := s.ledger.GetDocument(ctx, nil, owner, in.CompanyID, in.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("ledger lookup: %w", err)
	}
	if entry == nil || entry.StorageKey == "" {
		return nil, fmt.Errorf("%s: %w", in.DocumentID, formation.ErrDocumentNotFound)
	}
	signedKey := SignedKey(entry.StorageKey)
	if err := ValidateStorageKey(signedKey, AllowedSegments); err != nil {
		return nil, err
	}
	upCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storageWriteTimeout)
	defer cancel()
	if err := s.bucket.UploadFile(dbctx.Context{Ctx: upCtx}, gcp.BucketCategoryVault, signedKey, bytes.NewReader(in.Body)); err != nil {
		return nil, fmt.Errorf("upload signed artifact: %w", err)
	}
	now := time.Now().UTC()
	if err := s.ledger.MarkSigned(upCtx, nil, owner, in.CompanyID, in.DocumentID, signedKey, now); err != nil {
		return nil, fmt.Errorf("mark signed: %w", err)
	}
	s.log.Info("Signed artifact attached",
		"requester_id", in.RequesterID,
		"company_id", in.CompanyID,
		"document_id", in.DocumentID,
		"signed_key", signedKey,
	)
	return s.ledger.GetDocument(ctx, nil, owner, in.CompanyID, in.DocumentID)
}

func (s *documentAccessService) ListDocuments(ctx context.Context, userID, companyID string) ([]*vault.LedgerEntry, error) {
	if strings.TrimSpace(companyID) == "" {
		return s.ledger.GetDocuments(ctx, nil, userID)
	}
	return s.ledger.GetDocumentsForCompany(ctx, nil, userID, companyID)
}

// SignedKey places the countersigned copy next to the original:
// {dir}/{base}-Signed.pdf.
func SignedKey(storageKey string) string {
	dir, file := path.Split(storageKey)
	base := strings.TrimSuffix(file, path.Ext(file))
	return dir + base + "-Signed.pdf"
}

func accessOutcome(err error) vault.AccessOutcome {
	switch {
	case err == nil:
		return vault.AccessServed
	case errors.Is(err, formation.ErrDocumentNotFound):
		return vault.AccessNotFound
	case errors.Is(err, formation.ErrUnauthorized):
		return vault.AccessUnauthorized
	case errors.Is(err, formation.ErrInvalidPath):
		return vault.AccessInvalidPath
	default:
		return vault.AccessError
	}
}

func formatOfKey(key string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(key), "."))
}

func swapExt(name, ext string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + "." + ext
}
