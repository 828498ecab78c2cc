package models

// Stats holds aggregate library counts for the admin dashboard. Artists counts
// distinct artist names across both the songs and albums collections.
type Stats struct {
	TotalSongs   int64 `json:"totalSongs"`
	TotalAlbums  int64 `json:"totalAlbums"`
	TotalUsers   int64 `json:"totalUsers"`
	TotalArtists int64 `json:"totalArtists"`
}
