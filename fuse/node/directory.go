package node

import (
	"context"
	"errors"
	"os"
	"strings"
	"syscall"

	"github.com/anacrolix/fuse"
	"github.com/anacrolix/fuse/fs"

	"memtree/fuse/inode"
	"memtree/logger"
	"memtree/tree"
)

// Directory adapts one folder of the tree to a fuse node. The adapter
// is stateless apart from its path; every request runs against the
// tree, which does its own locking. Error numbers returned by the tree
// cross the fuse boundary unchanged, except that Lookup reports EINVAL
// as ENOENT.
type Directory struct {
	tree   *tree.Tree
	path   string
	inodes *inode.Registry

	logger *logger.Logger
}

func NewDirectory(tree *tree.Tree, path string, inodes *inode.Registry, logger *logger.Logger) *Directory {
	return &Directory{
		tree:   tree,
		path:   path,
		inodes: inodes,

		logger: logger,
	}
}

func (directory *Directory) child(name string) string {
	return directory.path + name + "/"
}

var _ fs.Node = &Directory{}

func (directory *Directory) Attr(ctx context.Context, attr *fuse.Attr) error {
	attr.Inode = directory.inodes.Get(directory.path)
	attr.Mode = os.ModeDir | 0o755
	attr.Valid = 1

	attr.Uid = uint32(os.Getuid())
	attr.Gid = uint32(os.Getgid())

	return nil
}

var _ fs.NodeRequestLookuper = &Directory{}

func (directory *Directory) Lookup(ctx context.Context, lookupRequest *fuse.LookupRequest, lookupResponse *fuse.LookupResponse) (fs.Node, error) {
	childPath := directory.child(lookupRequest.Name)

	_, err := directory.tree.List(childPath)
	if errors.Is(err, syscall.EINVAL) {
		// The kernel may probe names the tree's grammar rejects.
		return nil, syscall.ENOENT
	}
	if err != nil {
		return nil, err
	}

	return NewDirectory(directory.tree, childPath, directory.inodes, directory.logger), nil
}

var _ fs.HandleReadDirAller = &Directory{}

func (directory *Directory) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	contents, err := directory.tree.List(directory.path)
	if err != nil {
		directory.logger.Error("Failed to list "+directory.path, err)
		return nil, err
	}

	if contents == "" {
		return nil, nil
	}

	var entries []fuse.Dirent
	for _, name := range strings.Split(contents, ",") {
		entries = append(entries, fuse.Dirent{
			Name:  name,
			Type:  fuse.DT_Dir,
			Inode: directory.inodes.Get(directory.child(name)),
		})
	}

	return entries, nil
}

var _ fs.NodeMkdirer = &Directory{}

func (directory *Directory) Mkdir(ctx context.Context, mkdirRequest *fuse.MkdirRequest) (fs.Node, error) {
	childPath := directory.child(mkdirRequest.Name)

	if err := directory.tree.Create(childPath); err != nil {
		return nil, err
	}

	directory.logger.Infof("Created %s", childPath)

	return NewDirectory(directory.tree, childPath, directory.inodes, directory.logger), nil
}

var _ fs.NodeRemover = &Directory{}

func (directory *Directory) Remove(ctx context.Context, removeRequest *fuse.RemoveRequest) error {
	if !removeRequest.Dir {
		// The tree holds folders only.
		return syscall.EPERM
	}

	childPath := directory.child(removeRequest.Name)

	if err := directory.tree.Remove(childPath); err != nil {
		return err
	}

	directory.inodes.Forget(childPath)
	directory.logger.Infof("Removed %s", childPath)

	return nil
}

var _ fs.NodeRenamer = &Directory{}

func (directory *Directory) Rename(ctx context.Context, renameRequest *fuse.RenameRequest, newDir fs.Node) error {
	newDirectory, ok := newDir.(*Directory)
	if !ok {
		return syscall.EIO
	}

	sourcePath := directory.child(renameRequest.OldName)
	targetPath := newDirectory.child(renameRequest.NewName)

	err := directory.tree.Move(sourcePath, targetPath)
	if errors.Is(err, tree.ErrMoveIntoSubtree) {
		return syscall.EINVAL
	}
	if err != nil {
		return err
	}

	directory.inodes.Forget(sourcePath)
	directory.logger.Infof("Moved %s to %s", sourcePath, targetPath)

	return nil
}
