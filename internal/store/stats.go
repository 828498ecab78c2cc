package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CountDistinctArtists counts distinct artist names across the songs and
// albums collections using a union + group + count pipeline.
func (s *Store) CountDistinctArtists(ctx context.Context) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$unionWith", Value: bson.M{"coll": "albums", "pipeline": bson.A{}}}},
		{{Key: "$group", Value: bson.M{"_id": "$artist"}}},
		{{Key: "$count", Value: "count"}},
	}

	cursor, err := s.songs.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate distinct artists: %w", err)
	}

	var results []struct {
		Count int64 `bson:"count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode artist count: %w", err)
	}
	// An empty songs+albums union yields no count document at all
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Count, nil
}
