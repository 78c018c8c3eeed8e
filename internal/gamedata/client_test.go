package gamedata

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/nao1215/skinhistory/internal/fetch"
	"github.com/nao1215/skinhistory/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const pluginRoot = "/plugins/rcp-be-lol-game-data/global/"

var feed = map[string]string{
	"/pbe/content-metadata.json": `{"version":"14.3.566.1234+branch.releases-14-3"}`,
	"/pbe" + pluginRoot + "zh_cn/v1/champion-summary.json": `[
		{"id":-1,"name":"无","alias":"None"},
		{"id":62,"name":"齐天大圣","alias":"MonkeyKing","roles":["fighter"]},
		{"id":1,"name":"黑暗之女","alias":"Annie","roles":["mage"]}
	]`,
	"/pbe" + pluginRoot + "zh_cn/v1/skins.json": `{
		"1000":{"id":1000,"isBase":true,"name":"黑暗之女"},
		"1001":{"id":1001,"name":"哥特萝莉 安妮"}
	}`,
	"/pbe" + pluginRoot + "default/v1/skins.json": `{
		"1000":{"id":1000,"isBase":true,"name":"Annie"},
		"1001":{"id":1001,"name":"Goth Annie"},
		"147001":{"id":147001,"name":"K/DA ALL OUT Seraphine Indie","splashPath":"/base.jpg","questSkinInfo":{"name":"K/DA ALL OUT Seraphine","tiers":[
			{"id":147001,"name":"K/DA ALL OUT Seraphine Indie","stage":1},
			{"id":147002,"name":"K/DA ALL OUT Seraphine Rising Star","stage":2,"splashPath":"/rising.jpg"}
		]}}
	}`,
	"/pbe" + pluginRoot + "zh_cn/v1/skinlines.json": `[{"id":0,"name":""},{"id":2,"name":"B"},{"id":1,"name":"A"}]`,
	"/pbe" + pluginRoot + "zh_cn/v1/universes.json": `[{"id":0,"name":""},{"id":7,"name":"Z"},{"id":3,"name":"K"}]`,
	"/latest" + pluginRoot + "zh_cn/v1/champion-summary.json": `[{"id":1,"name":"黑暗之女","alias":"Annie"}]`,
	"/latest" + pluginRoot + "zh_cn/v1/skins.json":             `{"1000":{"id":1000,"isBase":true,"name":"黑暗之女"}}`,
	"/latest" + pluginRoot + "zh_cn/v1/skinlines.json":         `[{"id":1,"name":"A"}]`,
	"/latest" + pluginRoot + "zh_cn/v1/universes.json":         `[{"id":3,"name":"K"},{"id":7,"name":"Z"}]`,
}

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := feed[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	f := fetch.New(fetch.WithRetryDelay(0), fetch.WithLogger(discardLogger()))
	base := []Option{WithBaseURL(server.URL), WithLogger(discardLogger())}
	return New(f, append(base, opts...)...)
}

func TestClientChampions(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, WithSubstitutions(map[string]string{"monkeyking": "wukong"}))
	champions, err := c.Champions(context.Background(), PBE)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(champions) != 2 {
		t.Fatalf("expected 2 champions, got %d", len(champions))
	}
	// sorted by name: "齐" (U+9F50) sorts after "黑" (U+9ED1)
	if champions[0].ID != 1 || champions[1].ID != 62 {
		t.Errorf("unexpected order %v", champions)
	}
	if champions[0].Key != "annie" || champions[1].Key != "wukong" {
		t.Errorf("unexpected keys %q %q", champions[0].Key, champions[1].Key)
	}
}

func TestClientSkins(t *testing.T) {
	t.Parallel()

	skins, err := newTestClient(t).Skins(context.Background(), PBE, MatchLocale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skins["1000"].Name != "Annie" {
		t.Errorf("unexpected base name %q", skins["1000"].Name)
	}

	tier, ok := skins["147002"]
	if !ok {
		t.Fatal("expected quest tier 147002 to be expanded")
	}
	if tier.Name != "K/DA ALL OUT Seraphine Rising Star" || tier.Stage != 2 || tier.SplashPath != "/rising.jpg" {
		t.Errorf("unexpected tier record %+v", tier)
	}
	if tier.QuestSkinInfo != nil {
		t.Error("expanded tier must not carry quest info")
	}
	if first := skins["147001"]; first.Stage != 1 || first.SplashPath != "/base.jpg" {
		t.Errorf("unexpected first tier %+v", first)
	}
}

func TestClientSkinlinesAndUniverses(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	lines, err := c.Skinlines(context.Background(), PBE)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 || lines[0].Name != "A" {
		t.Errorf("unexpected skinlines %v", lines)
	}

	universes, err := c.Universes(context.Background(), PBE)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(universes) != 2 || universes[0].ID != 3 {
		t.Errorf("unexpected universes %v", universes)
	}
}

func TestClientMetadata(t *testing.T) {
	t.Parallel()

	meta, err := newTestClient(t).Metadata(context.Background(), PBE)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Version != "14.3.566.1234+branch.releases-14-3" {
		t.Errorf("unexpected version %q", meta.Version)
	}
}

func TestClientPatchDataAndAdded(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	current, err := c.PatchData(context.Background(), PBE, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(current.SkinsDefault) == 0 {
		t.Error("expected default-locale skins")
	}

	old, err := c.PatchData(context.Background(), Latest, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if old.SkinsDefault != nil {
		t.Error("default-locale skins must not be loaded")
	}

	added := Added(current, old)
	if !slices.Equal(added.Skins, []string{"1001"}) {
		t.Errorf("unexpected added skins %v", added.Skins)
	}
	if !slices.Equal(added.Champions, []int{62}) {
		t.Errorf("unexpected added champions %v", added.Champions)
	}
	if !slices.Equal(added.Skinlines, []int{2}) {
		t.Errorf("unexpected added skinlines %v", added.Skinlines)
	}
	if len(added.Universes) != 0 {
		t.Errorf("unexpected added universes %v", added.Universes)
	}
}

func TestClientMissingFile(t *testing.T) {
	t.Parallel()

	_, err := newTestClient(t).Champions(context.Background(), "13.1")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestAddedEmpty(t *testing.T) {
	t.Parallel()

	data := &model.PatchData{Skins: model.Skins{"1000": {ID: 1000}}}
	if added := Added(data, data); !added.Empty() {
		t.Errorf("expected nothing added, got %+v", added)
	}
}
