package models

// circuitSchemaURL is the synthetic resource id of the definition schema
const circuitSchemaURL = "mem://schemas/circuit.json"

// circuitSchema validates the shape of a circuit definition document
const circuitSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "id": {"type": "string"},
    "name": {"type": "string"},
    "description": {"type": "string"},
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "position": {"$ref": "#/definitions/position"}
        },
        "additionalProperties": false
      }
    },
    "components": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "nodes"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {"type": "string", "minLength": 1},
          "nodes": {
            "type": "array",
            "items": {"type": "string", "minLength": 1},
            "minItems": 2,
            "maxItems": 2
          },
          "position": {"$ref": "#/definitions/position"},
          "rotation": {"type": "number"},
          "maxCurrent": {"type": "number", "minimum": 0},
          "properties": {"type": "object"},
          "health": {"enum": ["normal", "blown"]}
        },
        "additionalProperties": false
      }
    },
    "wires": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"type": "string"},
          "from": {"type": "string", "minLength": 1},
          "to": {"type": "string", "minLength": 1},
          "fromComponent": {"type": "string"},
          "fromTerminal": {"type": "string"},
          "toComponent": {"type": "string"},
          "toTerminal": {"type": "string"}
        },
        "oneOf": [
          {"required": ["from", "to"]},
          {"required": ["fromComponent", "fromTerminal", "toComponent", "toTerminal"]}
        ],
        "additionalProperties": false
      }
    }
  },
  "definitions": {
    "position": {
      "type": "object",
      "required": ["x", "y"],
      "properties": {
        "x": {"type": "number"},
        "y": {"type": "number"}
      }
    }
  }
}`
