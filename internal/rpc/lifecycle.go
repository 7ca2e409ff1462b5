package rpc

import (
	"context"
	"encoding/json"
)

type initializeParams struct {
	InitializationOptions json.RawMessage `json:"initializationOptions"`
	RootURI                string          `json:"rootUri"`
}

type serverCapabilities struct {
	TextDocumentSync   int  `json:"textDocumentSync"`
	DefinitionProvider bool `json:"definitionProvider"`
	CompletionProvider struct {
		TriggerCharacters []string `json:"triggerCharacters"`
	} `json:"completionProvider"`
	ReferencesProvider   bool `json:"referencesProvider"`
	RenameProvider       bool `json:"renameProvider"`
	CodeActionProvider   bool `json:"codeActionProvider"`
	ExecuteCommandProvider struct {
		Commands []string `json:"commands"`
	} `json:"executeCommandProvider"`
}

type initializeResult struct {
	Capabilities serverCapabilities `json:"capabilities"`
	ServerInfo   struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
}

var customCommands = []string{
	"dendrite/getHierarchy",
	"dendrite/listNotes",
	"dendrite/getNoteKey",
	"dendrite/getBacklinks",
	"dendrite/createNote",
	"dendrite/deleteNote",
	"dendrite/splitNote",
	"dendrite/reorganizeHierarchy",
	"dendrite/resolveHierarchyEdits",
	"dendrite/workspaceAudit",
	"dendrite/undoMutation",
}

func handleInitialize(s *Server, ctx context.Context, params json.RawMessage) (any, error) {
	p, err := unmarshalParams[initializeParams](params)
	if err != nil {
		return nil, err
	}
	s.logger.Info("rpc: initialize", "rootUri", p.RootURI)

	result := initializeResult{}
	result.Capabilities.TextDocumentSync = 1 // full document sync
	result.Capabilities.DefinitionProvider = true
	result.Capabilities.CompletionProvider.TriggerCharacters = []string{"[", "#", "^"}
	result.Capabilities.ReferencesProvider = true
	result.Capabilities.RenameProvider = true
	result.Capabilities.CodeActionProvider = true
	result.Capabilities.ExecuteCommandProvider.Commands = customCommands
	result.ServerInfo.Name = "dendrite"
	result.ServerInfo.Version = "0.1.0"
	return result, nil
}

func handleInitialized(s *Server, ctx context.Context, params json.RawMessage) (any, error) {
	return nil, nil
}

func handleShutdown(s *Server, ctx context.Context, params json.RawMessage) (any, error) {
	s.shutdown.Store(true)
	return nil, nil
}
