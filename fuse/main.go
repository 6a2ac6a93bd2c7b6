package fuse

import (
	"time"

	"github.com/anacrolix/fuse"
	"github.com/anacrolix/fuse/fs"

	"memtree/config"
	"memtree/fuse/inode"
	fuse_node "memtree/fuse/node"
	"memtree/logger"
	"memtree/tree"
)

type FileSystem struct {
	tree   *tree.Tree
	inodes *inode.Registry

	logger *logger.Logger
}

var _ fs.FS = &FileSystem{}

func NewFileSystem(tree *tree.Tree) (*FileSystem, error) {
	inodes, err := inode.NewRegistry(config.InodeCacheSize)
	if err != nil {
		return nil, err
	}

	fileSystemLogger, err := logger.NewLogger("File System")
	if err != nil {
		return nil, err
	}

	return &FileSystem{
		tree:   tree,
		inodes: inodes,

		logger: fileSystemLogger,
	}, nil
}

func (fileSystem *FileSystem) Root() (fs.Node, error) {
	return fuse_node.NewDirectory(fileSystem.tree, "/", fileSystem.inodes, fileSystem.logger), nil
}

type Server struct {
	mountpoint string
	connection *fuse.Conn
	fileSystem *FileSystem

	logger *logger.Logger
}

// New mounts the tree at mountpoint and returns a server ready to
// answer requests.
func New(mountpoint string, tree *tree.Tree) (*Server, error) {
	fuseLogger, err := logger.NewLogger("Fuse")
	if err != nil {
		return nil, err
	}

	connection, err := fuse.Mount(
		mountpoint,
		fuse.VolumeName(config.VolumeName),
		fuse.Subtype(config.VolumeName),
		fuse.FSName(config.VolumeName),

		fuse.LocalVolume(),
	)
	if err != nil {
		return nil, err
	}

	fuseLogger.Info("Successfully created connection")

	fileSystem, err := NewFileSystem(tree)
	if err != nil {
		return nil, err
	}

	return &Server{
		mountpoint: mountpoint,
		connection: connection,
		fileSystem: fileSystem,

		logger: fuseLogger,
	}, nil
}

func (server *Server) Serve() error {
	fileSystemServer := fs.New(server.connection, &fs.Config{})

	server.logger.Info("Serving filesystem")

	if err := fileSystemServer.Serve(server.fileSystem); err != nil {
		return err
	}

	server.logger.Info("Filesystem shutdown")

	return nil
}

func (server *Server) Close() error {
	if err := server.unmount(); err != nil {
		server.logger.Error("failed to unmount filesystem", err)
	}

	if server.connection != nil {
		if err := server.connection.Close(); err != nil {
			server.logger.Error("failed to close connection", err)
		}

		server.connection = nil
	}

	server.logger.Info("Fuse closed")

	return nil
}

func (server *Server) unmount() error {
	var err error

	for attempt := 0; attempt < 10; attempt++ {
		err = fuse.Unmount(server.mountpoint)
		if err == nil {
			return nil
		}

		time.Sleep(500 * time.Millisecond)
	}

	return err
}
