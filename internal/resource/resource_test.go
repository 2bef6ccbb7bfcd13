package resource

import "testing"

func TestURLStreamWalksPagesThenAdvances(t *testing.T) {
	q := NewCollectQuery("listing")
	q.SetPersistField("per_page", "50")

	r := NewResource("things", "https://api.example.com/things", 3)
	r.AddQuery(q)

	stream := r.Stream("")

	var urls []string
	for {
		u, ok := stream.Next()
		if !ok {
			break
		}
		urls = append(urls, u)
	}

	if len(urls) != 3 {
		t.Fatalf("expected 3 pages, got %d: %v", len(urls), urls)
	}
	if urls[0] != "https://api.example.com/things?per_page=50&page=0" {
		t.Fatalf("unexpected first URL: %s", urls[0])
	}
}

func TestURLStreamAdvanceAxisEndsPagesEarly(t *testing.T) {
	q := NewCollectQuery("listing")
	r := NewResource("things", "https://api.example.com/things", 100)
	r.AddQuery(q)

	stream := r.Stream("")
	first, ok := stream.Next()
	if !ok {
		t.Fatal("expected a first URL")
	}
	if first != "https://api.example.com/things?page=0" {
		t.Fatalf("unexpected first URL: %s", first)
	}

	stream.AdvanceAxis()
	_, ok = stream.Next()
	if ok {
		t.Fatal("expected stream to be exhausted after advancing past the only query tuple")
	}
}

func TestURLStreamEnumeratesMutableFieldCombinations(t *testing.T) {
	q := NewCollectQuery("search")
	q.SetMutableField("category", []string{"books", "movies"})
	q.SetMutableField("sort", []string{"asc", "desc"})

	r := NewResource("search", "https://api.example.com/search", 1)
	r.AddQuery(q)

	stream := r.Stream("")
	var count int
	for {
		_, ok := stream.Next()
		if !ok {
			break
		}
		count++
	}
	if count != 4 {
		t.Fatalf("expected 4 combinations (2x2), got %d", count)
	}
}
