// Package workspace describes the groups and projects whose files are indexed,
// together with the exclude preferences that apply to them.
//
// A workspace is read from a YAML file:
//
//	editor: vim
//	exclude-file-suffixes: ".class,.o,~"
//	exclude-directory-names: ".git,node_modules"
//	groups:
//	  - name: backend
//	    projects:
//	      - key: api
//	        root: ~/src/api
//	      - key: worker
//	        root: ~/src/worker
//	        respect_gitignore: true
//
// Each group owns one index file, stored in the group's config folder.
package workspace
