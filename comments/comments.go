// Package comments implements legacy cell comments, threaded comments,
// the people list, and the VML visibility/anchor overlay.
package comments

import (
	"strconv"
	"strings"

	"github.com/xlcore-go/xlcore/internal/ooxml"
	"github.com/xlcore-go/xlcore/internal/xmlscan"
	"github.com/xlcore-go/xlcore/internal/xmlw"
)

const commentsNamespace = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
const threadedNamespace = "http://schemas.microsoft.com/office/spreadsheetml/2009/9/main"

// Legacy is one parsed <comment> in a comments part: the cell it's anchored
// to, the resolved author name, and its raw/HTML text.
type Legacy struct {
	Ref      string
	Author   string
	Text     string
	HTML     string
	PersonID string
}

// Threaded is one parsed threadedComment.
type Threaded struct {
	Ref      string
	ID       string
	PersonID string
	Text     string
	ParentID string
}

// Person is one entry of the people list.
type Person struct {
	DisplayName string
	ID          string
	UserID      string
	ProviderID  string
}

// ParseLegacy reads a legacy xl/comments{N}.xml part: the authors list and
// the commentList.
func ParseLegacy(data []byte) []Legacy {
	authors := parseAuthors(data)
	start, end, ok := findElement(data, "commentList")
	if !ok {
		return nil
	}
	body := data[start:end]
	var out []Legacy
	walker := xmlscan.NewWalker(body)
	var cur Legacy
	var inComment, inT bool
	for {
		text, tag, ok := walker.Next()
		// Text arrives with the tag that follows it; only <t> content is
		// comment text, indentation between structural tags is not.
		if inComment && inT && text != "" {
			cur.Text += ooxml.UnescapeXML(text, true)
		}
		switch {
		case !tag.Closing && tag.Name == "comment":
			inComment = true
			ref, _ := tag.Attr("ref")
			cur = Legacy{Ref: ref}
			if aidStr, present := tag.Attr("authorId"); present {
				if aid, convErr := strconv.Atoi(aidStr); convErr == nil && aid < len(authors) {
					cur.Author = authors[aid]
				}
			}
		case tag.Closing && tag.Name == "comment":
			if inComment {
				out = append(out, cur)
			}
			inComment = false
		case tag.Name == "t":
			inT = !tag.Closing && !tag.SelfClosing
		}
		if !ok {
			break
		}
	}
	return out
}

func parseAuthors(data []byte) []string {
	start, end, ok := findElement(data, "authors")
	if !ok {
		return nil
	}
	body := data[start:end]
	var authors []string
	walker := xmlscan.NewWalker(body)
	var inAuthor bool
	for {
		text, tag, ok := walker.Next()
		if inAuthor && strings.TrimSpace(text) != "" {
			authors = append(authors, ooxml.UnescapeXML(text, true))
		}
		if tag.Name == "author" {
			inAuthor = !tag.Closing
		}
		if !ok {
			break
		}
	}
	return authors
}

// WriteLegacy renders a comments part from a flat list of legacy comments,
// collecting distinct authors in first-seen order.
func WriteLegacy(items []Legacy) []byte {
	authorIdx := map[string]int{}
	var authorList []string
	for _, it := range items {
		if _, ok := authorIdx[it.Author]; !ok {
			authorIdx[it.Author] = len(authorList)
			authorList = append(authorList, it.Author)
		}
	}

	w := xmlw.New()
	w.OpenBare("comments").Attr("xmlns", commentsNamespace)
	w.Open("authors")
	for _, a := range authorList {
		w.Open("author").Text(a).Close()
	}
	w.Close()
	w.Open("commentList")
	for _, it := range items {
		w.Open("comment").Attr("ref", it.Ref).Attr("authorId", authorIdx[it.Author])
		w.Open("text")
		w.Open("t").Attr("xml:space", "preserve").Text(it.Text).Close()
		w.Close()
		w.Close()
	}
	w.Close()
	w.Close()
	return w.Bytes()
}

// ParseThreaded reads one xl/threadedComments/threadedCommentN.xml part.
func ParseThreaded(data []byte) []Threaded {
	var out []Threaded
	walker := xmlscan.NewWalker(data)
	var cur Threaded
	var inComment, inText bool
	for {
		text, tag, ok := walker.Next()
		// Threaded text has no run children, so everything inside <text>
		// is content; it arrives with the closing tag.
		if inComment && inText && text != "" {
			cur.Text += ooxml.UnescapeXML(text, true)
		}
		switch {
		case !tag.Closing && tag.Name == "threadedComment":
			inComment = true
			ref, _ := tag.Attr("ref")
			id, _ := tag.Attr("id")
			personID, _ := tag.Attr("personId")
			parentID, _ := tag.Attr("parentId")
			cur = Threaded{Ref: ref, ID: id, PersonID: personID, ParentID: parentID}
		case tag.Closing && tag.Name == "threadedComment":
			if inComment {
				out = append(out, cur)
			}
			inComment = false
		case !tag.Closing && tag.Name == "text":
			inText = true
		case tag.Closing && tag.Name == "text":
			inText = false
		}
		if !ok {
			break
		}
	}
	return out
}

// threadedGUIDBase and personGUIDBase are the fixed GUID prefixes Excel
// uses for threaded-comment and person ids; only the trailing 12-digit
// counter varies.
const threadedGUIDBase = "54EE7951-7262-4200-6969-"
const personGUIDBase = "54EE7950-7262-4200-6969-"

// NextThreadedGUID formats the running tcid counter into the threaded
// comment GUID pattern.
func NextThreadedGUID(tcid int) string {
	return "{" + threadedGUIDBase + pad12(tcid) + "}"
}

// NextPersonGUID formats an index into the person GUID pattern.
func NextPersonGUID(idx int) string {
	return "{" + personGUIDBase + pad12(idx) + "}"
}

func pad12(n int) string {
	s := strconv.Itoa(n)
	if len(s) >= 12 {
		return s[len(s)-12:]
	}
	return strings.Repeat("0", 12-len(s)) + s
}

// WriteThreaded renders one threadedComments part.
func WriteThreaded(items []Threaded) []byte {
	w := xmlw.New()
	w.OpenBare("ThreadedComments").Attr("xmlns", threadedNamespace)
	for _, it := range items {
		w.Open("threadedComment").Attr("ref", it.Ref).Attr("id", it.ID)
		if it.ParentID != "" {
			w.Attr("parentId", it.ParentID)
		}
		w.Attr("personId", it.PersonID)
		w.Open("text").Text(it.Text).Close()
		w.Close()
	}
	w.Close()
	return w.Bytes()
}

// ParsePeople reads xl/persons/person.xml.
func ParsePeople(data []byte) []Person {
	var out []Person
	walker := xmlscan.NewWalker(data)
	for {
		_, tag, ok := walker.Next()
		if !tag.Closing && tag.Name == "person" {
			displayName, _ := tag.Attr("displayname")
			id, _ := tag.Attr("id")
			userID, _ := tag.Attr("userId")
			providerID, _ := tag.Attr("providerId")
			out = append(out, Person{
				DisplayName: displayName,
				ID:          id,
				UserID:      userID,
				ProviderID:  providerID,
			})
		}
		if !ok {
			break
		}
	}
	return out
}

// WritePeople renders xl/persons/person.xml. Every person's id is fabricated
// deterministically from its index in names.
func WritePeople(names []string) []byte {
	w := xmlw.New()
	w.OpenBare("personList").
		Attr("xmlns", "http://schemas.microsoft.com/office/spreadsheetml/2018/threadedcomments").
		Attr("xmlns:xr", "http://schemas.microsoft.com/office/spreadsheetml/2014/revision")
	for i, name := range names {
		w.Open("person").
			Attr("displayName", name).
			Attr("id", NextPersonGUID(i)).
			Attr("userId", NextPersonGUID(i)).
			Attr("providerId", "None").
			Close()
	}
	w.Close()
	return w.Bytes()
}

func findElement(data []byte, name string) (start, end int, ok bool) {
	open := "<" + name
	idx := indexAny(data, open)
	if idx < 0 {
		return 0, 0, false
	}
	closeTag := []byte("</" + name + ">")
	endIdx := indexFrom(data, closeTag, idx)
	if endIdx < 0 {
		return 0, 0, false
	}
	tagEnd := indexByte(data[idx:], '>') + idx
	return tagEnd + 1, endIdx, true
}

func indexAny(data []byte, s string) int {
	return indexFrom(data, []byte(s), 0)
}

func indexFrom(data, sub []byte, from int) int {
	if from > len(data) {
		return -1
	}
	rel := indexBytes(data[from:], sub)
	if rel < 0 {
		return -1
	}
	return from + rel
}

func indexBytes(data, sub []byte) int {
	n, m := len(data), len(sub)
	if m == 0 || m > n {
		return -1
	}
	for i := 0; i+m <= n; i++ {
		if string(data[i:i+m]) == string(sub) {
			return i
		}
	}
	return -1
}

func indexByte(data []byte, b byte) int {
	for i, c := range data {
		if c == b {
			return i
		}
	}
	return -1
}
