package langsvr

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/segmentio/encoding/json"
)

func TestFindPairs(t *testing.T) {
	keys := []string{"server", "service", "port", "ssl"}
	vals := []int{0, 1, 2, 3}
	gotKeys, _ := findPairs(keys, vals, "serv")
	want := map[string]bool{"server": true, "service": true, "ssl": true}
	for _, k := range gotKeys {
		if !want[k] {
			t.Errorf("unexpected match %q", k)
		}
	}
	has := func(k string) bool {
		for _, g := range gotKeys {
			if g == k {
				return true
			}
		}
		return false
	}
	if !has("server") || !has("service") {
		t.Errorf("expected fuzzy matches missing: %v", gotKeys)
	}
	if has("port") {
		t.Errorf("port shares no subsequence with serv")
	}
}

func TestCompletionSiblings(t *testing.T) {
	uri := "file:///doc.toml"
	doc := "[server]\nhost = { a = 1 }\nhosts = [1]\nhost2 = { b = 2 }\n"
	in := frame(
		request(0, "initialize", initializeParamsJSON),
		notification("initialized", ""),
		didOpen(uri, doc),
		request(1, "textDocument/completion",
			fmt.Sprintf(`{"textDocument":{"uri":%q},"position":{"line":1,"character":1}}`, uri)),
		request(2, "shutdown", ""),
		notification("exit", ""),
	)
	out := &bytes.Buffer{}
	New(in, out).Run()
	msgs := readFrames(t, out)
	resp := responseByID(t, msgs, 1)
	var result struct {
		IsIncomplete bool `json:"isIncomplete"`
		Items        []struct {
			Label  string `json:"label"`
			Detail string `json:"detail"`
		} `json:"items"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("completion: %v", err)
	}
	labels := map[string]string{}
	for _, item := range result.Items {
		labels[item.Label] = item.Detail
	}
	if _, ok := labels["hosts"]; !ok {
		t.Errorf("sibling hosts not offered: %v", labels)
	}
	if _, ok := labels["host2"]; !ok {
		t.Errorf("sibling host2 not offered: %v", labels)
	}
	for label, detail := range labels {
		if !strings.Contains(detail, "defined at ln") {
			t.Errorf("completion %q detail = %q", label, detail)
		}
	}
}

func TestCompletionOnDot(t *testing.T) {
	uri := "file:///doc.toml"
	doc := "[a]\nb = { c = 1 }\nx = a.\n"
	in := frame(
		request(0, "initialize", initializeParamsJSON),
		notification("initialized", ""),
		didOpen(uri, doc),
		request(1, "textDocument/completion",
			fmt.Sprintf(`{"textDocument":{"uri":%q},"position":{"line":2,"character":5}}`, uri)),
		request(2, "shutdown", ""),
		notification("exit", ""),
	)
	out := &bytes.Buffer{}
	New(in, out).Run()
	// the document has parse errors, completion must still answer
	msgs := readFrames(t, out)
	resp := responseByID(t, msgs, 1)
	if resp.Error != nil {
		t.Errorf("completion errored: %+v", resp.Error)
	}
}
