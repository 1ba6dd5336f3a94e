// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package catalog defines audit templates and loads them from YAML files.

A template is an ordered list of sectors; a sector is an ordered list of
questions. Both are immutable after load — the execution engine only ever
reads them.

# Template Files

Each *.yaml file in the catalog directory holds one template:

	id: hospital-rag
	name: Auditoria Hospitalar RAG
	version: "1.0"
	sectors:
	  - id: uti
	    name: UTI - Unidade de Terapia Intensiva
	    questions:
	      - id: uti-q1
	        text: Os leitos possuem monitor multiparamétrico funcionando?
	        type: yes_no
	        category: Equipamentos
	        indicator: Segurança do Paciente
	        required: true

# Question Types

	yes_no           answer is "sim" or "nao"
	multiple_choice  answer is one of the question's options
	text             free text
	number           numeric value (0 counts as answered)
	photo_evidence   answered by attaching at least one evidence file

Multiple-choice questions carry their conformant subset in the catalog
data (the favorable list) so scoring never has to interpret option labels.

# Hot Reload

Catalog.Watch reloads the directory on file changes with a short
debounce. Invalid files keep the previous catalog in place. Audits
snapshot their template when the editing session starts, so an in-flight
audit is never affected by a reload.
*/
package catalog
