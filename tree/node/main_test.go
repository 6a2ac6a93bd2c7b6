package node

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitForParked(t *testing.T, node *Node, readers int, writers int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		node.mu.Lock()
		parkedReaders := node.rwait
		parkedWriters := node.wwait
		node.mu.Unlock()

		if parkedReaders == readers && parkedWriters == writers {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d/%d parked readers/writers, got %d/%d", readers, writers, parkedReaders, parkedWriters)
		}

		time.Sleep(time.Millisecond)
	}
}

func TestMutualExclusion(t *testing.T) {
	node := New()

	var activeReaders atomic.Int32
	var activeWriters atomic.Int32

	errs := make(chan string, 16)
	report := func(message string) {
		select {
		case errs <- message:
		default:
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := 0; j < 500; j++ {
				node.WriterEnter()
				if activeWriters.Add(1) != 1 {
					report("two writers active at once")
				}
				if activeReaders.Load() != 0 {
					report("reader active while a writer holds the node")
				}
				activeWriters.Add(-1)
				node.WriterExit()

				node.ReaderEnter()
				activeReaders.Add(1)
				if activeWriters.Load() != 0 {
					report("writer active while a reader holds the node")
				}
				activeReaders.Add(-1)
				node.ReaderExit()
			}
		}()
	}

	wg.Wait()
	close(errs)

	for message := range errs {
		t.Error(message)
	}
}

func TestWriterExitAdmitsReaderBatch(t *testing.T) {
	node := New()
	node.WriterEnter()

	const parked = 4

	entered := make(chan struct{}, parked)
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < parked; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			node.ReaderEnter()
			entered <- struct{}{}
			<-release
			node.ReaderExit()
		}()
	}

	waitForParked(t, node, parked, 0)

	select {
	case <-entered:
		t.Fatalf("Expected no reader admission while the writer holds the node")
	default:
	}

	node.WriterExit()

	for i := 0; i < parked; i++ {
		select {
		case <-entered:
		case <-time.After(5 * time.Second):
			t.Fatalf("Expected %d admitted readers, got %d", parked, i)
		}
	}

	close(release)
	wg.Wait()
}

func TestReaderExitHandsBatonToWriter(t *testing.T) {
	node := New()
	node.ReaderEnter()

	order := make(chan string, 2)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		node.WriterEnter()
		order <- "writer"
		node.WriterExit()
	}()

	waitForParked(t, node, 0, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		node.ReaderEnter()
		order <- "reader"
		node.ReaderExit()
	}()

	waitForParked(t, node, 1, 1)

	node.ReaderExit()
	wg.Wait()

	if first := <-order; first != "writer" {
		t.Errorf("Expected the parked writer to enter first, got %s", first)
	}
}

func TestDrainWaitsForReader(t *testing.T) {
	node := New()
	node.ReaderEnter()

	done := make(chan struct{})
	go func() {
		node.DrainSubtree()
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("Expected the drain to wait for the active reader")
	case <-time.After(50 * time.Millisecond):
	}

	node.ReaderExit()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Expected the drain to finish after the reader left")
	}
}

func TestDrainAndCheckEmpty(t *testing.T) {
	node := New()

	if !node.DrainAndCheckEmpty() {
		t.Errorf("Expected a fresh node to be empty")
	}

	node.WriterEnter()
	node.SetChild("a", New())
	node.WriterExit()

	if node.DrainAndCheckEmpty() {
		t.Errorf("Expected a node with a child to be non-empty")
	}
}

func TestChildren(t *testing.T) {
	node := New()

	node.WriterEnter()
	node.SetChild("b", New())
	node.SetChild("a", New())
	node.SetChild("c", New())
	node.WriterExit()

	node.ReaderEnter()
	defer node.ReaderExit()

	if node.Size() != 3 {
		t.Errorf("Expected 3, got %d", node.Size())
	}
	if node.Child("a") == nil {
		t.Errorf("Expected child a to exist")
	}
	if node.Child("missing") != nil {
		t.Errorf("Expected no child named missing")
	}
	if contents := node.ContentsString(); contents != "a,b,c" {
		t.Errorf("Expected a,b,c, got %s", contents)
	}
}

func TestContentsStringEmpty(t *testing.T) {
	node := New()

	node.ReaderEnter()
	defer node.ReaderExit()

	if contents := node.ContentsString(); contents != "" {
		t.Errorf("Expected empty string, got %q", contents)
	}
}

func TestRemoveChild(t *testing.T) {
	node := New()

	node.WriterEnter()
	node.SetChild("a", New())
	node.RemoveChild("a")

	if node.Size() != 0 {
		t.Errorf("Expected 0, got %d", node.Size())
	}
	node.WriterExit()
}
