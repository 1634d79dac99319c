package catalog

import "context"

// Album is a releasable or upcoming record in the artist's catalog. Optional
// fields marshal as JSON null when unset, which the storefront relies on to
// distinguish "no price yet" from a zero price.
type Album struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Catalog     string  `json:"catalog"`
	CoverImage  string  `json:"coverImage"`
	ReleaseDate *string `json:"releaseDate"`
	Price       *string `json:"price"`
	IsReleased  bool    `json:"isReleased"`
	PreviewURL  *string `json:"previewUrl"`
	PurchaseURL *string `json:"purchaseUrl"`
}

// InsertAlbum carries the caller-supplied fields of a new album. The store
// assigns the id.
type InsertAlbum struct {
	Title       string  `json:"title"`
	Catalog     string  `json:"catalog"`
	CoverImage  string  `json:"coverImage"`
	ReleaseDate *string `json:"releaseDate"`
	Price       *string `json:"price"`
	IsReleased  bool    `json:"isReleased"`
	PreviewURL  *string `json:"previewUrl"`
	PurchaseURL *string `json:"purchaseUrl"`
}

func newAlbum(id int, in InsertAlbum) Album {
	return Album{
		ID:          id,
		Title:       in.Title,
		Catalog:     in.Catalog,
		CoverImage:  in.CoverImage,
		ReleaseDate: in.ReleaseDate,
		Price:       in.Price,
		IsReleased:  in.IsReleased,
		PreviewURL:  in.PreviewURL,
		PurchaseURL: in.PurchaseURL,
	}
}

type Store interface {
	Ping(ctx context.Context) error
	ListSortedByID(ctx context.Context) ([]Album, error)
	Get(ctx context.Context, id int) (Album, bool, error)
	Create(ctx context.Context, in InsertAlbum) (Album, error)
}

// SeedFunc supplies the initial album set. The default is a fixed in-code
// list; tests and future dynamic sources inject their own.
type SeedFunc func(ctx context.Context) ([]InsertAlbum, error)

func DefaultSeed(context.Context) ([]InsertAlbum, error) {
	return []InsertAlbum{
		{
			Title:       "WICKED GENERATION",
			Catalog:     "CEAZY",
			CoverImage:  "/src/assets/NS008.jpg",
			ReleaseDate: strptr("2025-06-26"),
		},
		{
			Title:       "EVOLUTION",
			Catalog:     "CEAZY",
			CoverImage:  "/src/assets/EVOLUTION.png",
			ReleaseDate: strptr("2024-12-01"),
			Price:       strptr("5.00"),
			IsReleased:  true,
			PreviewURL:  strptr("/preview/evolution.mp3"),
			PurchaseURL: strptr("/purchase/evolution"),
		},
	}, nil
}

func strptr(s string) *string { return &s }
