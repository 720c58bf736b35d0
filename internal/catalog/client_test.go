package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/ratelimit"

	"github.com/vodbridge/vodbridge/internal/domain"
	"github.com/vodbridge/vodbridge/internal/httpx"
)

func newTestClient() *Client {
	c := New(httpx.New(ratelimit.NewUnlimited()), time.Second, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.retryDelay = time.Millisecond
	return c
}

func testSource(api string) domain.Source {
	return domain.Source{Key: "moo", Name: "魔都资源", API: api, VerifyTLS: true}
}

func TestSearch(t *testing.T) {
	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "list", r.URL.Query().Get("ac"))
		gotQuery.Store(r.URL.Query().Get("wd"))
		w.Write([]byte(`{"code":1,"list":[
			{"vod_id":101,"vod_name":"流浪地球","vod_time":"2024-01-02 10:00:00","type_name":"科幻片","vod_remarks":"HD"},
			{"vod_id":"102","vod_name":"流浪地球2","vod_time":"2024-02-02 10:00:00","type_name":"科幻片"},
			{"vod_name":"无ID条目"}
		]}`))
	}))
	defer server.Close()

	hits, err := newTestClient().Search(context.Background(), testSource(server.URL), "流浪地球")

	require.NoError(t, err)
	assert.Equal(t, "流浪地球", gotQuery.Load(), "query must be sent url-encoded and decode back intact")
	require.Len(t, hits, 2, "entries without vod_id are dropped")

	assert.Equal(t, "moo", hits[0].SourceKey)
	assert.Equal(t, "魔都资源", hits[0].SourceName)
	assert.Equal(t, "101", hits[0].VideoID, "numeric vod_id normalizes to a string")
	assert.Equal(t, "流浪地球", hits[0].Title)
	assert.Equal(t, "2024-01-02 10:00:00", hits[0].LastUpdated)
	assert.Equal(t, "科幻片", hits[0].Category)
	assert.Equal(t, "HD", hits[0].Remarks)
	assert.Equal(t, "102", hits[1].VideoID)
}

func TestSearchEmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":1,"list":[]}`))
	}))
	defer server.Close()

	hits, err := newTestClient().Search(context.Background(), testSource(server.URL), "nothing")

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchRecoversAfterUpstreamErrors(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"list":[{"vod_id":7,"vod_name":"触不可及"}]}`))
	}))
	defer server.Close()

	hits, err := newTestClient().Search(context.Background(), testSource(server.URL), "触不可及")

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "7", hits[0].VideoID)
	assert.Equal(t, int32(3), requests.Load(), "two failures then a success")
}

func TestSearchExhaustsRetries(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	hits, err := newTestClient().Search(context.Background(), testSource(server.URL), "q")

	require.Error(t, err)
	assert.True(t, httpx.IsStatus(err, http.StatusBadGateway))
	assert.Nil(t, hits)
	assert.Equal(t, int32(3), requests.Load(), "status errors consume the whole retry budget")
}

func TestSearchDoesNotRetryDecodeFailures(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`<html>upstream put a captcha here</html>`))
	}))
	defer server.Close()

	_, err := newTestClient().Search(context.Background(), testSource(server.URL), "q")

	require.Error(t, err)
	var decodeErr *httpx.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, int32(1), requests.Load(), "decode failures fail immediately")
}

func TestDetailBatching(t *testing.T) {
	var requests atomic.Int32
	var gotIDs atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "detail", r.URL.Query().Get("ac"))
		gotIDs.Store(r.URL.Query().Get("ids"))
		w.Write([]byte(`{"list":[
			{"vod_id":1,"vod_name":"影片一","vod_pic":"https://img.example/1.jpg","vod_area":"中国","vod_lang":"国语","vod_year":2023,"vod_actor":"甲,乙","vod_director":"丙","vod_content":"<p>一段<b>剧情</b>简介</p>","vod_remarks":"全40集","vod_play_url":"第01集$https://cdn.example/1.m3u8"},
			{"vod_id":"3","vod_name":"影片三"}
		]}`))
	}))
	defer server.Close()

	// 25 ids must collapse into a single capped batch of 20.
	ids := make([]string, 25)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}

	records, err := newTestClient().Detail(context.Background(), testSource(server.URL), ids)

	require.NoError(t, err)
	assert.Equal(t, int32(1), requests.Load())
	sent := strings.Split(gotIDs.Load().(string), ",")
	assert.Len(t, sent, 20)

	require.Len(t, records, 2, "only ids the origin answered for are present")
	rec := records["1"]
	assert.Equal(t, "影片一", rec.Name)
	assert.Equal(t, "https://img.example/1.jpg", rec.Poster)
	assert.Equal(t, "中国", rec.Area)
	assert.Equal(t, "国语", rec.Language)
	assert.Equal(t, "2023", rec.Year, "numeric vod_year normalizes to a string")
	assert.Equal(t, "一段剧情简介", rec.Synopsis, "markup is stripped from vod_content")
	assert.Equal(t, "第01集$https://cdn.example/1.m3u8", rec.PlayURL)

	_, ok := records["2"]
	assert.False(t, ok)
}

func TestDetailNoIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty id list")
	}))
	defer server.Close()

	records, err := newTestClient().Detail(context.Background(), testSource(server.URL), nil)

	require.NoError(t, err)
	assert.Empty(t, records)
}
