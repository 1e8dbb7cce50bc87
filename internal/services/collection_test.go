package services

import (
  "context"
  "fmt"
  "testing"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/heirlooms-backend/internal/types"
)

type fakeCollectionRepo struct {
  bySlug      map[string]*types.Collection
  slugErr     error
  slugLookups int

  created   []*types.Collection
  createErr error

  byID      map[uuid.UUID]*types.Collection
  idLookups int
}

func (f *fakeCollectionRepo) Create(ctx context.Context, tx *gorm.DB, collections []*types.Collection) ([]*types.Collection, error) {
  if f.createErr != nil {
    return nil, f.createErr
  }
  f.created = append(f.created, collections...)
  return collections, nil
}

func (f *fakeCollectionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Collection, error) {
  f.idLookups++
  var out []*types.Collection
  for _, id := range ids {
    if c, ok := f.byID[id]; ok {
      out = append(out, c)
    }
  }
  return out, nil
}

func (f *fakeCollectionRepo) GetByOwnerID(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Collection, error) {
  var out []*types.Collection
  for _, c := range f.created {
    if c.OwnerID == ownerID {
      out = append(out, c)
    }
  }
  return out, nil
}

func (f *fakeCollectionRepo) GetVisibleBySlug(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, slug string) (*types.Collection, error) {
  f.slugLookups++
  if f.slugErr != nil {
    return nil, f.slugErr
  }
  return f.bySlug[slug], nil
}

func newCollectionServiceForTest(t *testing.T, repo *fakeCollectionRepo) CollectionService {
  t.Helper()
  t.Setenv("REDIS_ADDR", "")
  return NewCollectionService(nil, newTestLogger(t), repo)
}

func TestResolveReferenceUUIDPassthrough(t *testing.T) {
  repo := &fakeCollectionRepo{}
  svc := newCollectionServiceForTest(t, repo)

  want := uuid.New()
  got, found, err := svc.ResolveReference(context.Background(), uuid.New(), want.String())
  if err != nil {
    t.Fatalf("ResolveReference: %v", err)
  }
  if !found || got != want {
    t.Fatalf("resolve: want=(%s,true) got=(%s,%v)", want, got, found)
  }
  if repo.slugLookups != 0 || repo.idLookups != 0 {
    t.Fatalf("uuid refs must not hit the store: slug=%d id=%d", repo.slugLookups, repo.idLookups)
  }
}

func TestResolveReferenceKnownSlug(t *testing.T) {
  ownerID := uuid.New()
  col := &types.Collection{ID: uuid.New(), OwnerID: ownerID, Slug: "family-photos"}
  repo := &fakeCollectionRepo{bySlug: map[string]*types.Collection{"family-photos": col}}
  svc := newCollectionServiceForTest(t, repo)

  got, found, err := svc.ResolveReference(context.Background(), ownerID, "family-photos")
  if err != nil {
    t.Fatalf("ResolveReference: %v", err)
  }
  if !found || got != col.ID {
    t.Fatalf("resolve: want=(%s,true) got=(%s,%v)", col.ID, got, found)
  }
}

func TestResolveReferenceUnknownSlug(t *testing.T) {
  repo := &fakeCollectionRepo{}
  svc := newCollectionServiceForTest(t, repo)

  got, found, err := svc.ResolveReference(context.Background(), uuid.New(), "no-such-slug")
  if err != nil {
    t.Fatalf("ResolveReference: unknown slug must not error, got %v", err)
  }
  if found || got != uuid.Nil {
    t.Fatalf("resolve: want=(nil,false) got=(%s,%v)", got, found)
  }
}

func TestResolveReferenceEmptyRef(t *testing.T) {
  repo := &fakeCollectionRepo{}
  svc := newCollectionServiceForTest(t, repo)

  got, found, err := svc.ResolveReference(context.Background(), uuid.New(), "   ")
  if err != nil || found || got != uuid.Nil {
    t.Fatalf("resolve: want=(nil,false,nil) got=(%s,%v,%v)", got, found, err)
  }
  if repo.slugLookups != 0 {
    t.Fatalf("empty refs must not hit the store")
  }
}

func TestResolveReferenceLookupError(t *testing.T) {
  repo := &fakeCollectionRepo{slugErr: fmt.Errorf("connection reset")}
  svc := newCollectionServiceForTest(t, repo)

  _, found, err := svc.ResolveReference(context.Background(), uuid.New(), "family-photos")
  if err == nil || found {
    t.Fatalf("want lookup error, got found=%v err=%v", found, err)
  }
}

func TestCollectionCreate(t *testing.T) {
  repo := &fakeCollectionRepo{}
  svc := newCollectionServiceForTest(t, repo)
  ownerID := uuid.New()

  col, err := svc.Create(context.Background(), ownerID, CreateCollectionInput{
    Title:       "  Family Photos  ",
    Description: " from the attic ",
    IsPublic:    true,
  })
  if err != nil {
    t.Fatalf("Create: %v", err)
  }
  if col.Title != "Family Photos" {
    t.Fatalf("title not trimmed: %q", col.Title)
  }
  if col.Slug != "family-photos" {
    t.Fatalf("slug: want=%q got=%q", "family-photos", col.Slug)
  }
  if col.Description != "from the attic" {
    t.Fatalf("description not trimmed: %q", col.Description)
  }
  if col.OwnerID != ownerID || !col.IsPublic || col.ID == uuid.Nil {
    t.Fatalf("collection: %+v", col)
  }
  if len(repo.created) != 1 {
    t.Fatalf("created rows: want=1 got=%d", len(repo.created))
  }
}

func TestCollectionCreateRequiresTitle(t *testing.T) {
  repo := &fakeCollectionRepo{}
  svc := newCollectionServiceForTest(t, repo)

  if _, err := svc.Create(context.Background(), uuid.New(), CreateCollectionInput{Title: "   "}); err == nil {
    t.Fatalf("want error for blank title")
  }
  if len(repo.created) != 0 {
    t.Fatalf("nothing should be written on validation failure")
  }
}

func TestGetByReferencePrivateCollectionHidden(t *testing.T) {
  ownerID := uuid.New()
  stranger := uuid.New()
  col := &types.Collection{ID: uuid.New(), OwnerID: ownerID, Slug: "private-things", IsPublic: false}
  repo := &fakeCollectionRepo{byID: map[uuid.UUID]*types.Collection{col.ID: col}}
  svc := newCollectionServiceForTest(t, repo)

  got, err := svc.GetByReference(context.Background(), stranger, col.ID.String())
  if err != nil {
    t.Fatalf("GetByReference: %v", err)
  }
  if got != nil {
    t.Fatalf("private collection leaked to non-owner: %+v", got)
  }

  got, err = svc.GetByReference(context.Background(), ownerID, col.ID.String())
  if err != nil || got == nil || got.ID != col.ID {
    t.Fatalf("owner lookup: got=%+v err=%v", got, err)
  }
}
